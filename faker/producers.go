package faker

// Producers bundles one producer per email category.
type Producers struct {
	Order        Producer[TransportOrder]
	Declaration  Producer[Declaration]
	Question     Producer[Question]
	Complaint    Producer[Complaint]
	PriceRequest Producer[PriceRequest]
	WaitingCosts Producer[WaitingCosts]
	UpdateOrder  Producer[UpdateOrder]
	Random       Producer[Promotion]
}

// Producers returns producers backed by fk.
func (fk *Faker) Producers() Producers {
	return Producers{
		Order:        fk.TransportOrder,
		Declaration:  fk.Declaration,
		Question:     fk.Question,
		Complaint:    fk.Complaint,
		PriceRequest: fk.PriceRequest,
		WaitingCosts: fk.WaitingCosts,
		UpdateOrder:  fk.UpdateOrder,
		Random:       fk.Promotion,
	}
}

// Fixed returns a producer that always yields v.
func Fixed[T any](v T) Producer[T] {
	return func() (T, error) { return v, nil }
}
