package summarycard

// guidanceMsg delivers the AI coaching text for the card.
type guidanceMsg struct {
	Text string
	Err  error
}
