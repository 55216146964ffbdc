// Package faker produces the structured fake records each email category is
// generated from. All randomness flows through one seeded gofakeit source,
// so a fixed seed and clock reproduce the same records.
package faker

import (
	"fmt"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
)

// Producer returns a fresh record for one run.
type Producer[T any] func() (T, error)

// Languages a generated email may be written in.
var Languages = []string{"English", "Dutch", "French", "German"}

// Faker builds records for every category. It is safe for concurrent use.
type Faker struct {
	f   *gofakeit.Faker
	now func() time.Time
}

// Option configures a Faker.
type Option func(*Faker)

// WithClock sets the reference time for generated dates.
func WithClock(now func() time.Time) Option {
	return func(f *Faker) {
		f.now = now
	}
}

// New returns a Faker seeded with seed. A zero seed draws a random one.
func New(seed uint64, opts ...Option) *Faker {
	fk := &Faker{f: gofakeit.New(seed), now: time.Now}
	for _, opt := range opts {
		opt(fk)
	}
	return fk
}

// Signature is the closing block of a customer email.
type Signature struct {
	Name    string
	Title   string
	Company string
	Phone   string
	Email   string
}

func (s Signature) String() string {
	return strings.Join([]string{s.Name, s.Title, s.Company, "Tel: " + s.Phone, s.Email}, "\n")
}

func (fk *Faker) signature(company string) Signature {
	first, last := fk.f.FirstName(), fk.f.LastName()
	return Signature{
		Name:    first + " " + last,
		Title:   fk.f.RandomString(jobTitles),
		Company: company,
		Phone:   fk.phone(),
		Email:   fk.emailAt(first, company),
	}
}

func (fk *Faker) language() string {
	return fk.f.RandomString(Languages)
}

func (fk *Faker) phone() string {
	return fk.f.Numerify("+32 4## ## ## ##")
}

func (fk *Faker) vatNumber() string {
	return fk.f.Numerify("BE 0###.###.###")
}

func (fk *Faker) emailAt(first, company string) string {
	domain := strings.ToLower(strings.Join(strings.FieldsFunc(company, func(r rune) bool {
		return !('a' <= r && r <= 'z' || 'A' <= r && r <= 'Z' || '0' <= r && r <= '9')
	}), ""))
	if domain == "" {
		domain = "example"
	}
	return fmt.Sprintf("%s@%s.com", strings.ToLower(first), domain)
}

// date returns a day between from and to days after the reference time.
func (fk *Faker) date(from, to int) time.Time {
	base := fk.now().Truncate(24 * time.Hour)
	return fk.f.DateRange(base.AddDate(0, 0, from), base.AddDate(0, 0, to))
}

func (fk *Faker) ref(prefix string) string {
	return prefix + fk.f.Numerify("######")
}

const dateLayout = "2006-01-02"

var jobTitles = []string{
	"Logistics Manager",
	"Transport Coordinator",
	"Supply Chain Manager",
	"Purchasing Officer",
	"Operations Manager",
	"Customer Service",
	"Managing Director",
}
