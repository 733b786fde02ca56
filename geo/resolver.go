package geo

type Resolver interface {
	Country(id uint) (Country, bool)
}
