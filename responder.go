package chunkstream

// EchoResponder answers every request with its own prompt.
type EchoResponder struct{}

// Respond returns req.Prompt.
func (EchoResponder) Respond(req Request) string { return req.Prompt }

// ScriptResponder answers every request with the same text, regardless of
// the prompt.
type ScriptResponder struct {
	Text string
}

// Respond returns the scripted text.
func (r ScriptResponder) Respond(Request) string { return r.Text }

// Interface compliance checks.
var (
	_ Responder = EchoResponder{}
	_ Responder = ScriptResponder{}
)
