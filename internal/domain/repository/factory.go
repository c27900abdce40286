package repository

// Factory describes access to the ledger repositories.
type Factory interface {
	Orders() OrderRepository
	Leases() LeaseRepository
	Payments() PaymentRepository
	Drawer() DrawerRepository
	Sales() SalesRepository
	Events() EventRepository
}
