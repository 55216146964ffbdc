package branch

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spetersoncode/phantommail"
	"github.com/spetersoncode/phantommail/faker"
	"github.com/spetersoncode/phantommail/llm"
	"github.com/spetersoncode/phantommail/templates"
)

// recipientBlock is the logistics company every order and declaration is
// addressed to.
const recipientBlock = `Vectrans NV
Kipdorpbrug 1
2000 Antwerpen
VAT: BE 1234.567.89`

var errNoTemplates = errors.New("no template store")

// Order generates transport order emails from the order templates. The
// template policy decides whether the email carries a PDF.
func Order(produce faker.Producer[faker.TransportOrder], deps Deps) Generator {
	deps = deps.withDefaults()
	store := deps.Templates
	return newGenerator(phantommail.Order, produce, deps, func(o faker.TransportOrder) (request, error) {
		if store == nil {
			return request{}, errNoTemplates
		}
		idx := pick(deps.OrderTemplate, store.Indices(phantommail.Order))
		entry, err := store.Entry(phantommail.Order, idx)
		if err != nil {
			return request{}, err
		}
		emailHTML, err := store.Read(phantommail.Order, templates.SlotEmail, idx)
		if err != nil {
			return request{}, err
		}

		details := orderDetails(o)
		if entry.SignatureOnly {
			details = orderSignatureDetails(o)
		}

		if !entry.HasAttachment() {
			prompt := fmt.Sprintf(orderPromptNoAttachment, recipientBlock, details, emailHTML)
			return request{messages: []llm.Message{llm.UserMessage(prompt)}, template: idx}, nil
		}

		pdfHTML, err := store.Read(phantommail.Order, templates.SlotAttachment, idx)
		if err != nil {
			return request{}, err
		}
		prompt := fmt.Sprintf(orderPromptAttachment, details, emailHTML, pdfHTML)
		return request{
			messages: []llm.Message{llm.UserMessage(prompt)},
			filename: OrderFilename,
			template: idx,
		}, nil
	})
}

const orderPromptNoAttachment = `Generate a fake transport order email based on the following data.

IMPORTANT: Replace ALL references in the HTML template with the actual data provided below:
- Replace all company names, addresses, contact details with the sender's information
- Replace order numbers, dates, and transport details with realistic values
- Replace any placeholder text with appropriate content based on the transport order
- Ensure the email appears to come from the sender company listed below
- If no pickup, delivery or stops information is provided, DO NOT INCLUDE it in the email!

The transport is sent to the following logistics company:
%s

Transport details:
%s

Create an email body in the following style:
<body_html>
%s
</body_html>

<attachment_html>
no attachment
</attachment_html>
`

const orderPromptAttachment = `Generate a fake transport order email based on the following data.

IMPORTANT: Replace ALL references in BOTH the email HTML and attachment HTML templates with the actual data:
- Replace all company names, addresses, contact details with the sender's information
- Replace order numbers, dates, and transport details with realistic values
- Replace any placeholder text with appropriate content based on the transport order
- Ensure both the email and PDF attachment appear to come from the sender company
- Make sure the attachment contains detailed transport information matching the email

Transport details:
%s

Create an email body and attachment in the following style:
<body_html>
%s
</body_html>

<attachment_html>
%s
</attachment_html>
`

func orderDetails(o faker.TransportOrder) string {
	var b strings.Builder
	c := o.Client
	b.WriteString("## Sender details:\n")
	fmt.Fprintf(&b, "- Company name: %s\n", c.Company)
	fmt.Fprintf(&b, "- Contact person: %s\n", c.SenderName)
	fmt.Fprintf(&b, "- VAT number: %s\n", c.VATNumber)
	fmt.Fprintf(&b, "- Address: %s\n", c.Address)
	fmt.Fprintf(&b, "- City: %s\n", c.City)
	fmt.Fprintf(&b, "- Postal code: %s\n", c.PostalCode)
	fmt.Fprintf(&b, "- Country: %s\n", c.Country)
	fmt.Fprintf(&b, "- Email: %s\n", c.Email)
	fmt.Fprintf(&b, "- Phone: %s\n\n", c.Phone)

	fmt.Fprintf(&b, "## Goods details:\n- Description: %s\n\n", o.Goods)
	fmt.Fprintf(&b, "## Transport dates:\n- Loading date: %s\n- Unloading date: %s\n\n", o.LoadingDate, o.UnloadingDate)

	writeParty(&b, "Pickup address", o.Pickup)
	writeParty(&b, "Delivery address", o.Delivery)
	writeStops(&b, "Intermediate Loading stops", o.LoadingStops)
	writeStops(&b, "Intermediate Unloading stops", o.UnloadingStops)
	return b.String()
}

func writeParty(b *strings.Builder, title string, p faker.Party) {
	fmt.Fprintf(b, "## %s:\n- Company: %s\n- Address: %s\n- Country: %s\n\n", title, p.Company, p.Address, p.Country)
}

func writeStops(b *strings.Builder, title string, stops []faker.Party) {
	fmt.Fprintf(b, "## %s: %d\n", title, len(stops))
	for _, s := range stops {
		fmt.Fprintf(b, "- %s\n", s)
	}
	b.WriteString("\n")
}

func orderSignatureDetails(o faker.TransportOrder) string {
	c := o.Client
	return fmt.Sprintf("## Client details (for the email signature):\n- Company name: %s\n- Contact person: %s\n- VAT number: %s\n- Phone: %s\n",
		c.Company, c.SenderName, c.VATNumber, c.Phone)
}

// Declaration generates customs declaration emails. Every declaration
// template carries a PDF.
func Declaration(produce faker.Producer[faker.Declaration], deps Deps) Generator {
	deps = deps.withDefaults()
	store := deps.Templates
	return newGenerator(phantommail.Declaration, produce, deps, func(d faker.Declaration) (request, error) {
		if store == nil {
			return request{}, errNoTemplates
		}
		idx := pick(deps.DeclarationTemplate, store.Indices(phantommail.Declaration))
		emailHTML, err := store.Read(phantommail.Declaration, templates.SlotEmail, idx)
		if err != nil {
			return request{}, err
		}
		pdfHTML, err := store.Read(phantommail.Declaration, templates.SlotAttachment, idx)
		if err != nil {
			return request{}, err
		}
		prompt := fmt.Sprintf(declarationPrompt, recipientBlock, declarationDetails(d), emailHTML, pdfHTML)
		return request{
			messages: []llm.Message{llm.UserMessage(prompt)},
			filename: DeclarationFilename,
			template: idx,
		}, nil
	})
}

const declarationPrompt = `Generate a fake customs declaration email based on the following data.

IMPORTANT: Replace ALL references in BOTH the email HTML and PDF HTML templates with the actual data:
- Replace all MRN numbers, company names, addresses, contact details with the declaration information
- Replace dates, values, and goods descriptions with realistic values based on the declaration
- Replace any placeholder text with appropriate content based on the customs declaration
- Ensure both the email and PDF appear to come from the exporter company
- Make sure the PDF contains detailed customs information matching the declaration
- Don't put customs declaration in the subject but make it very abstract

The customs declaration is being sent to:
%s

Declaration details:
%s

Create an email body and attachment in the following style:
<body_html>
%s
</body_html>

<attachment_html>
%s
</attachment_html>
`

func declarationDetails(d faker.Declaration) string {
	var b strings.Builder
	b.WriteString("## Declaration details:\n")
	fmt.Fprintf(&b, "- MRN: %s\n", d.MRN)
	fmt.Fprintf(&b, "- Declaration type: %s\n", d.Type)
	fmt.Fprintf(&b, "- Reference number: %s\n", d.ReferenceNumber)
	fmt.Fprintf(&b, "- Total packages: %d\n", d.TotalPackages)
	fmt.Fprintf(&b, "- Items count: %d\n\n", d.ItemsCount)

	writeTrader(&b, "Exporter details", d.Exporter)
	writeTrader(&b, "Importer details", d.Importer)

	t := d.Transport
	b.WriteString("## Transport details:\n")
	fmt.Fprintf(&b, "- Transport mode: %s\n", t.Mode)
	fmt.Fprintf(&b, "- Place of loading: %s\n", t.PlaceOfLoading)
	fmt.Fprintf(&b, "- Arrival transport: %s\n", t.ArrivalTransport)
	fmt.Fprintf(&b, "- Border transport: %s\n\n", t.BorderTransport)

	b.WriteString("## Goods details:\n")
	for _, it := range d.Items {
		desc := it.Description
		if desc == "" {
			desc = "Various goods"
		}
		fmt.Fprintf(&b, "- Item %d: %s (%d packages, %gkg)\n", it.Number, desc, it.Packages, it.GrossMassKg)
	}
	b.WriteString("\n## Valuation:\n")
	fmt.Fprintf(&b, "- Invoice currency: %s\n", d.InvoiceCurrency)
	fmt.Fprintf(&b, "- Invoice value: %.2f\n", d.InvoiceValue)
	fmt.Fprintf(&b, "- Acceptance date: %s\n", d.AcceptanceDateTime)
	fmt.Fprintf(&b, "- Status: %s\n", d.Status)
	return b.String()
}

func writeTrader(b *strings.Builder, title string, t faker.Trader) {
	fmt.Fprintf(b, "## %s:\n- Company name: %s\n- EORI/VAT number: %s\n- Address: %s\n\n", title, t.Name, t.EORINumber, t.Address)
}
