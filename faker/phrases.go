package faker

var questionTopics = []string{"customs", "insurance", "capacity", "documents", "tracking"}

var questionsByTopic = map[string][]string{
	"customs": {
		"Can you handle the T1 transit documents for a shipment to Switzerland?",
		"Do you offer customs clearance for imports from the UK, and what are the costs?",
	},
	"insurance": {
		"Is CMR insurance included in your rates or do we need additional cargo insurance?",
		"What is the maximum insured value per truck for electronics?",
	},
	"capacity": {
		"Do you have a mega trailer available next week for a full load to northern Italy?",
		"Can you provide a temperature-controlled trailer for 26 pallets of pharmaceuticals?",
	},
	"documents": {
		"Which documents does your driver need at pickup for an ADR shipment?",
		"Can you send us the signed CMR for our last delivery?",
	},
	"tracking": {
		"Is it possible to get live GPS tracking for our shipments?",
		"Can your planners send an ETA notification one hour before delivery?",
	},
}

var complaintIssues = []string{
	"the goods arrived damaged and two pallets had to be refused",
	"the truck arrived six hours late at the unloading address",
	"the driver left without the signed CMR documents",
	"the wrong pallets were delivered to our warehouse",
	"the temperature log shows the cold chain was interrupted",
}

var complaintImpacts = []string{
	"our production line stood still for half a day",
	"our customer has threatened to cancel the contract",
	"we had to pay overtime to our warehouse staff",
	"the goods can no longer be sold at full price",
}

var complaintDemands = []string{
	"a full refund of the transport costs",
	"compensation for the damaged goods",
	"a written explanation and corrective action plan",
	"a discount on the next three shipments",
}

var negotiationReasons = []string{
	"Unfortunately this is above our budget for this lane.",
	"A competitor has quoted a considerably lower price for the same route.",
	"Given the regular volumes we can offer, we expected a sharper rate.",
	"Our customer has asked us to reduce transport costs this quarter.",
}

var waitingReasons = []string{
	"the receiver's warehouse was closed",
	"the unloading dock was occupied",
	"the delivery slot had not been booked",
	"the goods were not expected by the receiver",
	"a forklift was not available",
}

var disputeArguments = []string{
	"According to our records the driver arrived outside the agreed time window.",
	"The first two hours of waiting are free of charge under our framework agreement.",
	"We were never informed about the delay while the truck was waiting.",
	"The waiting was caused by your planner booking the wrong slot.",
}

var updateQuestions = []string{
	"Could you let us know the current status of order %s?",
	"Can you confirm when order %s will be delivered?",
	"Has order %s already been loaded?",
	"We have not received a delivery confirmation for order %s yet. Can you check?",
}

type promotion struct {
	title, content, benefit, cta string
}

var promotions = []promotion{
	{
		title:   "New groupage service to Scandinavia",
		content: "Weekly consolidated departures from Antwerp to Sweden, Norway and Denmark.",
		benefit: "Save up to 30% compared to full truck loads",
		cta:     "Request a quote today",
	},
	{
		title:   "Warehousing space available in Rotterdam",
		content: "5,000 pallet places in a bonded warehouse with direct port access.",
		benefit: "Flexible short-term contracts without minimum volume",
		cta:     "Book a site visit",
	},
	{
		title:   "Green transport with LNG trucks",
		content: "Our new fleet of LNG trucks cuts CO2 emissions on your routes.",
		benefit: "Up to 20% lower emissions at the same rate",
		cta:     "Contact our sustainability team",
	},
	{
		title:   "Express delivery across the Benelux",
		content: "Same-day delivery for urgent pallets booked before 10:00.",
		benefit: "Guaranteed delivery before 18:00 or your money back",
		cta:     "Try it on your next shipment",
	},
}
