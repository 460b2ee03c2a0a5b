package engine

// System personas. The greeting persona is used for a user's very first
// message; afterwards the default persona applies.
const (
	defaultPersona = "You are a friendly, concise assistant replying inside a " +
		"messaging app. Keep answers short enough to read on a phone, stay on " +
		"topic, and use the conversation history for context."

	greetingPersona = "You are a friendly, concise assistant replying inside a " +
		"messaging app. This is the user's first message: welcome them warmly, " +
		"briefly say what you can help with, and answer their message."
)

// fallbackReplies is the fixed set of user-facing apology texts served when
// generation ultimately fails. One is chosen uniformly at random so repeated
// failures don't read like a stuck bot.
var fallbackReplies = []string{
	"Sorry, I'm having trouble thinking straight right now. Please try again in a moment.",
	"Hmm, something went wrong on my end. Mind sending that again?",
	"I couldn't come up with a reply just now. Give me a minute and try once more.",
	"Apologies, I hit a snag processing that. Please try again shortly.",
}
