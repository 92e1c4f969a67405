package ai

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"dealflow/internal/models"
	"dealflow/internal/repositories"
)

// Assist action names accepted by the proxy endpoint.
const (
	ActionDraftMessage    = "draft_message"
	ActionSummarizeDeal   = "summarize_deal"
	ActionSuggestNextStep = "suggest_next_step"
)

var (
	// ErrRateLimited and ErrConsentRequired map to distinguished
	// response shapes; callers must not fold them into generic errors.
	ErrRateLimited     = errors.New("rate limited")
	ErrConsentRequired = errors.New("consent required")
	ErrUnknownAction   = errors.New("unknown AI action")
)

// consentRequired lists actions that push user/contact data outside the
// organization and therefore need stored consent.
var consentRequired = map[string]bool{
	ActionDraftMessage: true,
}

type Request struct {
	Action string `json:"action"`
	Data   struct {
		DealID       int    `json:"deal_id,omitempty"`
		ContactID    int    `json:"contact_id,omitempty"`
		Instructions string `json:"instructions,omitempty"`
		Subject      string `json:"subject,omitempty"`
		Send         bool   `json:"send,omitempty"`
	} `json:"data"`
}

type Result struct {
	RequestID string `json:"request_id"`
	Action    string `json:"action"`
	Text      string `json:"text"`
	Sent      bool   `json:"sent,omitempty"`
}

// Mailer delivers a drafted message; satisfied by the email service.
type Mailer interface {
	SendDraftMessage(email, subject, body string) error
}

type Service struct {
	Client      Client
	Limiter     *Limiter
	UserRepo    repositories.UserRepository
	DealRepo    repositories.DealRepository
	ContactRepo repositories.ContactRepository
	Mailer      Mailer

	Now func() time.Time
}

func NewService(client Client, limiter *Limiter, userRepo repositories.UserRepository,
	dealRepo repositories.DealRepository, contactRepo repositories.ContactRepository, mailer Mailer) *Service {
	return &Service{
		Client:      client,
		Limiter:     limiter,
		UserRepo:    userRepo,
		DealRepo:    dealRepo,
		ContactRepo: contactRepo,
		Mailer:      mailer,
		Now:         time.Now,
	}
}

// Handle runs one assist request for the user: rate limit, consent
// gate, prompt build, LLM call, optional delivery.
func (s *Service) Handle(ctx context.Context, orgID, userID int, req *Request) (*Result, error) {
	if !s.Limiter.Allow(userID, s.Now()) {
		return nil, ErrRateLimited
	}

	if consentRequired[req.Action] {
		user, err := s.UserRepo.GetByID(orgID, userID)
		if err != nil {
			return nil, err
		}
		if user == nil || user.AIConsentAt == nil {
			return nil, ErrConsentRequired
		}
	}

	prompt, contact, err := s.buildPrompt(orgID, req)
	if err != nil {
		return nil, err
	}

	text, err := s.Client.Complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	result := &Result{
		RequestID: uuid.NewString(),
		Action:    req.Action,
		Text:      text,
	}

	if req.Action == ActionDraftMessage && req.Data.Send {
		if contact == nil || contact.Email == "" {
			return nil, errors.New("contact has no email address")
		}
		subject := req.Data.Subject
		if subject == "" {
			subject = "Following up"
		}
		if err := s.Mailer.SendDraftMessage(contact.Email, subject, text); err != nil {
			// draft survives; delivery failure is reported, not fatal
			log.Printf("[ai][%s] delivery failed request=%s: %v", req.Action, result.RequestID, err)
		} else {
			result.Sent = true
		}
	}
	return result, nil
}

func (s *Service) buildPrompt(orgID int, req *Request) (string, *models.Contact, error) {
	var deal *models.Deal
	var contact *models.Contact
	var err error

	if req.Data.DealID > 0 {
		if deal, err = s.DealRepo.GetByID(orgID, req.Data.DealID); err != nil {
			return "", nil, err
		}
		if deal == nil {
			return "", nil, errors.New("deal not found")
		}
		if deal.ContactID != nil && req.Data.ContactID == 0 {
			req.Data.ContactID = *deal.ContactID
		}
	}
	if req.Data.ContactID > 0 {
		if contact, err = s.ContactRepo.GetByID(orgID, req.Data.ContactID); err != nil {
			return "", nil, err
		}
	}

	var b strings.Builder
	switch req.Action {
	case ActionDraftMessage:
		b.WriteString("Draft a short, professional outreach email. Reply with the email body only.\n")
	case ActionSummarizeDeal:
		if deal == nil {
			return "", nil, errors.New("deal_id is required")
		}
		b.WriteString("Summarize this sales deal in three sentences for a pipeline review.\n")
	case ActionSuggestNextStep:
		if deal == nil {
			return "", nil, errors.New("deal_id is required")
		}
		b.WriteString("Suggest the single best next step for this sales deal, one sentence.\n")
	default:
		return "", nil, fmt.Errorf("%w: %q", ErrUnknownAction, req.Action)
	}

	if deal != nil {
		status := "open"
		switch {
		case deal.IsWon:
			status = "won"
		case deal.IsLost:
			status = "lost"
		}
		fmt.Fprintf(&b, "Deal: %s (value %.2f, stage %s, %s)\n", deal.Title, deal.Value, deal.Status, status)
		if deal.CompanyName != "" {
			fmt.Fprintf(&b, "Company: %s\n", deal.CompanyName)
		}
	}
	if contact != nil {
		fmt.Fprintf(&b, "Contact: %s", contact.Name)
		if contact.Stage != "" {
			fmt.Fprintf(&b, " (lifecycle stage %s)", contact.Stage)
		}
		b.WriteString("\n")
	}
	if req.Data.Instructions != "" {
		fmt.Fprintf(&b, "Instructions: %s\n", req.Data.Instructions)
	}
	return b.String(), contact, nil
}
