package alert

import (
	"context"
	"fmt"
	"html"
	"strings"

	"Sparkle/internal/repo"

	"github.com/resend/resend-go/v2"
	"go.uber.org/zap"
)

// Notifier tells the sales team about a new lead. Delivery is best-effort.
type Notifier interface {
	LeadSubmitted(ctx context.Context, l repo.Lead) error
}

type NoopNotifier struct {
	Log *zap.Logger
}

func (n NoopNotifier) LeadSubmitted(_ context.Context, l repo.Lead) error {
	if n.Log != nil {
		n.Log.Debug("lead alert skipped", zap.Int64("lead_id", l.ID), zap.String("kind", string(l.Kind)))
	}
	return nil
}

type emailSender interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

type ResendNotifier struct {
	emails emailSender
	from   string
	to     []string
	log    *zap.Logger
}

func NewResendNotifier(apiKey, from string, to []string, log *zap.Logger) *ResendNotifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &ResendNotifier{
		emails: resend.NewClient(apiKey).Emails,
		from:   from,
		to:     to,
		log:    log,
	}
}

func (n *ResendNotifier) LeadSubmitted(ctx context.Context, l repo.Lead) error {
	sent, err := n.emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    n.from,
		To:      n.to,
		Subject: Subject(l),
		Html:    Body(l),
		ReplyTo: l.Email,
	})
	if err != nil {
		return fmt.Errorf("send lead alert: %w", err)
	}
	n.log.Info("lead alert sent", zap.Int64("lead_id", l.ID), zap.String("message_id", sent.Id))
	return nil
}

var kindTitles = map[repo.Kind]string{
	repo.KindConsultancy: "Expert consultancy enquiry",
	repo.KindPartner:     "Trusted partner registration",
	repo.KindAMC:         "AMC enquiry",
}

var detailLabels = map[repo.Kind]string{
	repo.KindConsultancy: "Requirement",
	repo.KindPartner:     "Business details",
	repo.KindAMC:         "System details",
}

func Subject(l repo.Lead) string {
	title := kindTitles[l.Kind]
	if title == "" {
		title = "New lead"
	}
	return fmt.Sprintf("%s #%d from %s (%s)", title, l.ID, l.Name, l.Location)
}

func Body(l repo.Lead) string {
	rows := [][2]string{
		{"Name", l.Name},
		{"Company", l.CompanyName},
		{"Phone", l.PhoneNumber},
		{"Email", l.Email},
		{"Location", l.Location},
		{detailLabels[l.Kind], l.Details},
		{"Received", l.CreatedAt.Format("02 Jan 2006, 15:04 MST")},
	}

	var b strings.Builder
	b.WriteString("<table>")
	for _, r := range rows {
		if r[1] == "" {
			continue
		}
		fmt.Fprintf(&b, "<tr><th align=\"left\">%s</th><td>%s</td></tr>",
			html.EscapeString(r[0]), strings.ReplaceAll(html.EscapeString(r[1]), "\n", "<br>"))
	}
	b.WriteString("</table>")
	return b.String()
}
