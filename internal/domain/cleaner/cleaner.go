package cleaner

// Contact is the delivery information of a cleaner.
type Contact struct {
	ID       string
	FullName string
	Email    string
}
