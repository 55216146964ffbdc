package faker

import "fmt"

// Party is a company at a pickup, delivery or stop location.
type Party struct {
	Company string
	Address string
	Country string
}

func (p Party) String() string {
	return fmt.Sprintf("%s, %s, %s", p.Company, p.Address, p.Country)
}

// Client is the company placing a transport order.
type Client struct {
	Company    string
	SenderName string
	VATNumber  string
	Address    string
	City       string
	PostalCode string
	Country    string
	Email      string
	Phone      string
}

// TransportOrder is a road transport order from a client.
type TransportOrder struct {
	Client         Client
	Goods          string
	LoadingDate    string
	UnloadingDate  string
	Pickup         Party
	Delivery       Party
	LoadingStops   []Party
	UnloadingStops []Party
}

// TransportOrder returns a random transport order with up to two
// intermediate loading and unloading stops.
func (fk *Faker) TransportOrder() (TransportOrder, error) {
	company := fk.f.Company()
	first, last := fk.f.FirstName(), fk.f.LastName()
	loading := fk.date(1, 14)
	unloading := loading.AddDate(0, 0, fk.f.IntRange(1, 4))

	return TransportOrder{
		Client: Client{
			Company:    company,
			SenderName: first + " " + last,
			VATNumber:  fk.vatNumber(),
			Address:    fk.f.Street(),
			City:       fk.f.City(),
			PostalCode: fk.f.Zip(),
			Country:    fk.f.RandomString(countries),
			Email:      fk.emailAt(first, company),
			Phone:      fk.phone(),
		},
		Goods:          fmt.Sprintf("%d pallets %s, %d kg", fk.f.IntRange(1, 33), fk.f.RandomString(goods), fk.f.IntRange(200, 24000)),
		LoadingDate:    loading.Format(dateLayout),
		UnloadingDate:  unloading.Format(dateLayout),
		Pickup:         fk.party(),
		Delivery:       fk.party(),
		LoadingStops:   fk.parties(fk.f.IntRange(0, 2)),
		UnloadingStops: fk.parties(fk.f.IntRange(0, 2)),
	}, nil
}

func (fk *Faker) party() Party {
	return Party{
		Company: fk.f.Company(),
		Address: fmt.Sprintf("%s, %s %s", fk.f.Street(), fk.f.Zip(), fk.f.City()),
		Country: fk.f.RandomString(countries),
	}
}

func (fk *Faker) parties(n int) []Party {
	out := make([]Party, 0, n)
	for range n {
		out = append(out, fk.party())
	}
	return out
}

var countries = []string{
	"Belgium", "Netherlands", "Germany", "France", "Luxembourg",
	"Poland", "Italy", "Spain", "Czech Republic", "Austria",
}

var goods = []string{
	"automotive parts",
	"packaged food products",
	"chemical drums (non-ADR)",
	"steel coils",
	"household appliances",
	"textile rolls",
	"paper reels",
	"machinery components",
	"beverages",
	"building materials",
}
