package repositories

// Set is every repository of one backing store plus its transactor
type Set struct {
	Transactor    Transactor
	Organizations OrganizationRepository
	Sequences     SequenceRepository
	Products      ProductRepository
	Customers     CustomerRepository
	Locations     LocationRepository
	BOMs          BOMRepository
	LicensePlates LicensePlateRepository
	Genealogy     GenealogyRepository
	Allocations   AllocationRepository
	SalesOrders   SalesOrderRepository
	Shipments     ShipmentRepository
	RMAs          RMARepository
	WorkOrders    WorkOrderRepository
	QualityHolds  QualityHoldRepository
	Activity      ActivityRepository
}
