package faker

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Trader is an exporter or importer on a customs declaration.
type Trader struct {
	Name       string
	EORINumber string
	Address    string
}

// TransportInfo describes how the goods move.
type TransportInfo struct {
	Mode             string
	PlaceOfLoading   string
	ArrivalTransport string
	BorderTransport  string
}

// DeclarationItem is one goods line on a declaration.
type DeclarationItem struct {
	Number      int
	Description string
	Packages    int
	GrossMassKg float64
}

// Declaration is a customs import or export declaration.
type Declaration struct {
	MRN                string
	Type               string
	ReferenceNumber    string
	TotalPackages      int
	ItemsCount         int
	Exporter           Trader
	Importer           Trader
	Transport          TransportInfo
	Items              []DeclarationItem
	InvoiceCurrency    string
	InvoiceValue       float64
	AcceptanceDateTime string
	Status             string
}

// Declaration returns a random customs declaration with one to five items.
func (fk *Faker) Declaration() (Declaration, error) {
	accepted := fk.date(-5, 0)
	n := fk.f.IntRange(1, 5)

	items := make([]DeclarationItem, n)
	total := 0
	for i := range items {
		pkgs := fk.f.IntRange(1, 40)
		total += pkgs
		items[i] = DeclarationItem{
			Number:      i + 1,
			Description: fk.f.RandomString(goods),
			Packages:    pkgs,
			GrossMassKg: math.Round(fk.f.Float64Range(25, 4000)*10) / 10,
		}
	}

	return Declaration{
		MRN:             fmt.Sprintf("%02dBE%s%s", accepted.Year()%100, strings.ToUpper(fk.f.Lexify("????")), fk.f.Numerify("##########")),
		Type:            fk.f.RandomString(declarationTypes),
		ReferenceNumber: fk.ref("DEC-"),
		TotalPackages:   total,
		ItemsCount:      n,
		Exporter:        fk.trader(),
		Importer:        fk.trader(),
		Transport: TransportInfo{
			Mode:             fk.f.RandomString(transportModes),
			PlaceOfLoading:   fk.f.City(),
			ArrivalTransport: fk.plate(),
			BorderTransport:  fk.plate(),
		},
		Items:              items,
		InvoiceCurrency:    fk.f.RandomString([]string{"EUR", "USD", "GBP"}),
		InvoiceValue:       fk.f.Price(1000, 250000),
		AcceptanceDateTime: accepted.Add(fk.hourOfDay()).Format("2006-01-02 15:04:05"),
		Status:             fk.f.RandomString(declarationStatuses),
	}, nil
}

func (fk *Faker) trader() Trader {
	country := strings.ToUpper(fk.f.CountryAbr())
	return Trader{
		Name:       fk.f.Company(),
		EORINumber: country + fk.f.Numerify("##########"),
		Address:    fmt.Sprintf("%s, %s %s, %s", fk.f.Street(), fk.f.Zip(), fk.f.City(), fk.f.Country()),
	}
}

func (fk *Faker) plate() string {
	return strings.ToUpper(fk.f.Lexify("?-???-")) + fk.f.Numerify("###")
}

func (fk *Faker) hourOfDay() time.Duration {
	return time.Duration(fk.f.IntRange(7*3600, 18*3600)) * time.Second
}

var declarationTypes = []string{"IM A", "IM Z", "EX A", "CO A", "IM H"}

var declarationStatuses = []string{"Accepted", "Released", "Under control", "Cleared"}

var transportModes = []string{"Road", "Sea", "Air", "Rail"}
