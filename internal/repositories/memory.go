package repositories

// NewMemorySet builds in-memory repositories. Data lives as long as the process.
func NewMemorySet() *Set {
	return &Set{
		Products: NewMemoryProductRepository(),
		Orders:   NewMemoryOrderRepository(),
		Users:    NewMemoryUserRepository(),
	}
}
