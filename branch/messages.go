package branch

import (
	"fmt"

	"github.com/spetersoncode/phantommail"
	"github.com/spetersoncode/phantommail/faker"
	"github.com/spetersoncode/phantommail/llm"
)

// Personas sent as the system message of the template-free categories.
const (
	customerPersona = "You are an assistant that generates fake emails. The emails are meant for Vectrix Logistics NV"

	pricePersona = "You are an assistant that generates fake price negotiation emails for transport services. " +
		"The emails are meant for Vectrix Logistics NV"

	waitingCostsPersona = "You are an assistant that generates fake dispute emails responding to waiting cost charges " +
		"from Vectrans logistics company. The emails should professionally dispute the charges while maintaining " +
		"a business relationship."

	updateOrderPersona = "You are an assistant that generates fake update request emails about existing transport orders. " +
		"The emails are meant for Vectrans NV"

	promotionPersona = "You are an assistant that generates fake promotional emails for logistics and transport services. " +
		"The emails are meant for Vectrans NV to promote their services."
)

func conversation(system, user string) []llm.Message {
	return []llm.Message{llm.SystemMessage(system), llm.UserMessage(user)}
}

// Question generates customer question emails.
func Question(produce faker.Producer[faker.Question], deps Deps) Generator {
	return newGenerator(phantommail.Question, produce, deps.withDefaults(), func(q faker.Question) (request, error) {
		data := fmt.Sprintf("- Language: %s\n- Topic: %s\n- Question: %s\n- Order reference: %s\n\nSignature:\n%s",
			q.Language, q.Topic, q.Question, q.OrderRef, q.Signature)
		prompt := "Generate a fake question email based on the following data. Write all details in the body.\n\n" + data
		return request{messages: conversation(customerPersona, prompt)}, nil
	})
}

// Complaint generates customer complaint emails.
func Complaint(produce faker.Producer[faker.Complaint], deps Deps) Generator {
	return newGenerator(phantommail.Complaint, produce, deps.withDefaults(), func(c faker.Complaint) (request, error) {
		data := fmt.Sprintf("- Language: %s\n- Order reference: %s\n- Incident date: %s\n- Issue: %s\n- Impact: %s\n- Demand: %s\n\nSignature:\n%s",
			c.Language, c.OrderRef, c.IncidentDate, c.Issue, c.Impact, c.Demand, c.Signature)
		prompt := "Generate a fake complaint email based on the following data. Write all details in the body.\n\n" + data
		return request{messages: conversation(customerPersona, prompt)}, nil
	})
}

// PriceRequest generates price negotiation emails.
func PriceRequest(produce faker.Producer[faker.PriceRequest], deps Deps) Generator {
	return newGenerator(phantommail.PriceRequest, produce, deps.withDefaults(), func(p faker.PriceRequest) (request, error) {
		prompt := fmt.Sprintf(`Generate a professional price negotiation email based on the following data.

IMPORTANT:
- Use the exact company details and signature provided
- Write in %s language
- Include the transport route: %s to %s
- Include the transport date: %s
- Make the subject abstract but related to price inquiry (e.g., "Transport inquiry %s-%s")
- Include the price negotiation message naturally in the email body
- End with the complete signature block provided

Price request details:
%s
`, p.Language, p.Origin, p.Destination, p.TransportDate, p.Origin, p.Destination, p.FormattedMessage)
		return request{messages: conversation(pricePersona, prompt)}, nil
	})
}

// WaitingCosts generates disputes of waiting-time invoices.
func WaitingCosts(produce faker.Producer[faker.WaitingCosts], deps Deps) Generator {
	return newGenerator(phantommail.WaitingCosts, produce, deps.withDefaults(), func(w faker.WaitingCosts) (request, error) {
		prompt := fmt.Sprintf(`Generate a professional dispute email based on the following waiting costs scenario.

IMPORTANT:
- Vectrans is charging waiting costs for a delivery issue
- The customer is disputing these charges
- Use the exact dispute message and signature provided
- Write in %s language
- Make the subject reference the delivery issue (e.g., "RE: Waiting costs - Delivery %s %s")
- Include the reference numbers in the email
- Maintain a professional but firm tone

Waiting costs scenario:
- Delivery location: %s - %s
- Delivery date: %s
- Order reference: %s
- Delivery reference: %s
- Tracking: %s
- Issue: Driver could not unload because %s
- Waiting time: %d hours
- Charged amount: %.2f€

Dispute response:
%s
`, w.Language, w.DeliveryDate, w.DeliveryCity,
			w.DeliveryCity, w.DestinationCompany, w.DeliveryDate, w.OrderRef, w.DeliveryRef, w.TrackingRef,
			w.WaitingReason, w.WaitingHours, w.TotalCost, w.FormattedMessage)
		return request{messages: conversation(waitingCostsPersona, prompt)}, nil
	})
}

// UpdateOrder generates short status requests for existing orders.
func UpdateOrder(produce faker.Producer[faker.UpdateOrder], deps Deps) Generator {
	return newGenerator(phantommail.UpdateOrder, produce, deps.withDefaults(), func(u faker.UpdateOrder) (request, error) {
		prompt := fmt.Sprintf(`Generate a brief professional email asking for an update about a transport order.

IMPORTANT:
- Keep the email very brief and direct
- Use the exact greeting, question, and signature provided
- Write in %s language
- Make the subject reference the order (e.g., "Order %s - Update request" or "Transport %s - Information needed")
- The body should contain only the greeting, question, and signature
- Do NOT add extra explanations or context

Order references:
- Order: %s
- Tracking: %s

Email content:
%s
`, u.Language, u.OrderRef, u.TrackingRef, u.OrderRef, u.TrackingRef, u.FormattedMessage)
		return request{messages: conversation(updateOrderPersona, prompt)}, nil
	})
}

// Random generates promotional emails.
func Random(produce faker.Producer[faker.Promotion], deps Deps) Generator {
	return newGenerator(phantommail.Random, produce, deps.withDefaults(), func(p faker.Promotion) (request, error) {
		prompt := fmt.Sprintf(`Generate a professional promotional email based on the following content.

IMPORTANT:
- Create an engaging promotional email in %s language
- Use the promotional title as inspiration for the subject line
- Include the promotional content, benefit, and call-to-action
- Add the validity period prominently
- Use professional but engaging marketing language
- End with the complete signature provided
- Make it look like a real promotional email from a logistics company

Promotional content:
- Title: %s
- Content: %s
- Key benefit: %s
- Call to action: %s
- Validity: %s

Sender:
%s
`, p.Language, p.Title, p.Content, p.Benefit, p.CTA, p.Validity, p.Signature)
		return request{messages: conversation(promotionPersona, prompt)}, nil
	})
}
