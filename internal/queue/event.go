package queue

// VerificationEmailEvent is the payload published to the
// email.verification queue when a user registers or asks for a resend.
// The consumer renders the message and hands it to the mail sender.
type VerificationEmailEvent struct {
	To       string `json:"to"`
	Username string `json:"username"`
	Token    string `json:"token"`
}

// VerificationQueueName is the durable queue both the publisher and the
// consumer declare.
const VerificationQueueName = "email.verification"
