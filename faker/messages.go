package faker

import (
	"fmt"
	"math"
	"strings"
)

// Question is a general transport question from a customer.
type Question struct {
	Language  string
	Topic     string
	Question  string
	OrderRef  string
	Signature Signature
}

// Question returns a random customer question.
func (fk *Faker) Question() (Question, error) {
	topic := fk.f.RandomString(questionTopics)
	return Question{
		Language:  fk.language(),
		Topic:     topic,
		Question:  fk.f.RandomString(questionsByTopic[topic]),
		OrderRef:  fk.ref("ORD-"),
		Signature: fk.signature(fk.f.Company()),
	}, nil
}

// Complaint is a customer complaint about a transport.
type Complaint struct {
	Language     string
	OrderRef     string
	IncidentDate string
	Issue        string
	Impact       string
	Demand       string
	Signature    Signature
}

// Complaint returns a random complaint.
func (fk *Faker) Complaint() (Complaint, error) {
	return Complaint{
		Language:     fk.language(),
		OrderRef:     fk.ref("ORD-"),
		IncidentDate: fk.date(-14, -1).Format(dateLayout),
		Issue:        fk.f.RandomString(complaintIssues),
		Impact:       fk.f.RandomString(complaintImpacts),
		Demand:       fk.f.RandomString(complaintDemands),
		Signature:    fk.signature(fk.f.Company()),
	}, nil
}

// PriceRequest is a price inquiry or negotiation for a route.
type PriceRequest struct {
	Language         string
	Origin           string
	Destination      string
	TransportDate    string
	Goods            string
	QuotedPrice      float64
	TargetPrice      float64
	FormattedMessage string
	Signature        Signature
}

// PriceRequest returns a random price negotiation.
func (fk *Faker) PriceRequest() (PriceRequest, error) {
	quoted := math.Round(fk.f.Price(450, 3500))
	target := math.Round(quoted * fk.f.Float64Range(0.75, 0.92))
	p := PriceRequest{
		Language:      fk.language(),
		Origin:        fk.f.City(),
		Destination:   fk.f.City(),
		TransportDate: fk.date(3, 21).Format(dateLayout),
		Goods:         fmt.Sprintf("%d pallets %s", fk.f.IntRange(1, 33), fk.f.RandomString(goods)),
		QuotedPrice:   quoted,
		TargetPrice:   target,
		Signature:     fk.signature(fk.f.Company()),
	}
	p.FormattedMessage = strings.Join([]string{
		"Dear Sir or Madam,",
		fmt.Sprintf("Thank you for your offer of EUR %.0f for the transport of %s from %s to %s on %s.", p.QuotedPrice, p.Goods, p.Origin, p.Destination, p.TransportDate),
		fmt.Sprintf("%s We would be able to confirm the order at EUR %.0f.", fk.f.RandomString(negotiationReasons), p.TargetPrice),
		"Kind regards,",
		p.Signature.String(),
	}, "\n\n")
	return p, nil
}

// WaitingCosts is a dispute of waiting charges invoiced for a delivery.
type WaitingCosts struct {
	Language           string
	DeliveryCity       string
	DestinationCompany string
	DeliveryDate       string
	OrderRef           string
	DeliveryRef        string
	TrackingRef        string
	WaitingReason      string
	WaitingHours       int
	TotalCost          float64
	FormattedMessage   string
	Signature          Signature
}

// WaitingCosts returns a random waiting-costs dispute scenario.
func (fk *Faker) WaitingCosts() (WaitingCosts, error) {
	hours := fk.f.IntRange(2, 9)
	w := WaitingCosts{
		Language:           fk.language(),
		DeliveryCity:       fk.f.City(),
		DestinationCompany: fk.f.Company(),
		DeliveryDate:       fk.date(-20, -2).Format(dateLayout),
		OrderRef:           fk.ref("ORD-"),
		DeliveryRef:        fk.ref("DEL-"),
		TrackingRef:        fk.ref("TRK-"),
		WaitingReason:      fk.f.RandomString(waitingReasons),
		WaitingHours:       hours,
		TotalCost:          float64(hours) * float64(fk.f.RandomInt([]int{45, 50, 55, 60})),
		Signature:          fk.signature(fk.f.Company()),
	}
	w.FormattedMessage = strings.Join([]string{
		"Dear Vectrans team,",
		fmt.Sprintf("We received your invoice for %d hours of waiting time (EUR %.2f) at %s in %s on %s.", w.WaitingHours, w.TotalCost, w.DestinationCompany, w.DeliveryCity, w.DeliveryDate),
		fk.f.RandomString(disputeArguments),
		"We therefore do not accept these charges and ask you to issue a credit note.",
		"Best regards,",
		w.Signature.String(),
	}, "\n\n")
	return w, nil
}

// UpdateOrder is a short request for the status of an existing order.
type UpdateOrder struct {
	Language         string
	OrderRef         string
	TrackingRef      string
	Greeting         string
	Question         string
	FormattedMessage string
	Signature        Signature
}

// UpdateOrder returns a random order status request.
func (fk *Faker) UpdateOrder() (UpdateOrder, error) {
	u := UpdateOrder{
		Language:    fk.language(),
		OrderRef:    fk.ref("ORD-"),
		TrackingRef: fk.ref("TRK-"),
		Greeting:    fk.f.RandomString([]string{"Hello,", "Good morning,", "Dear Vectrans team,", "Hi,"}),
		Signature:   fk.signature(fk.f.Company()),
	}
	u.Question = fmt.Sprintf(fk.f.RandomString(updateQuestions), u.OrderRef)
	u.FormattedMessage = strings.Join([]string{u.Greeting, u.Question, u.Signature.String()}, "\n\n")
	return u, nil
}

// Promotion is a marketing email from another logistics company.
type Promotion struct {
	Language  string
	Title     string
	Content   string
	Benefit   string
	CTA       string
	Validity  string
	Signature Signature
}

// Promotion returns a random promotional campaign.
func (fk *Faker) Promotion() (Promotion, error) {
	i := fk.f.IntRange(0, len(promotions)-1)
	p := promotions[i]
	return Promotion{
		Language:  fk.language(),
		Title:     p.title,
		Content:   p.content,
		Benefit:   p.benefit,
		CTA:       p.cta,
		Validity:  "Valid until " + fk.date(14, 60).Format(dateLayout),
		Signature: fk.signature(fk.f.Company()),
	}, nil
}
