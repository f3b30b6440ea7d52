package email

import (
	"testing"
	"time"

	"github.com/ddanilov/bank-cards/internal/config"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCardIssuedLogsDeliveryFailureOnce(t *testing.T) {
	logger, hook := test.NewNullLogger()
	cfg := &config.Config{
		SMTPHost:    "127.0.0.1",
		SMTPPort:    "1", // nothing listens here, delivery fails immediately
		SenderEmail: "noreply@bank.example",
	}
	s := NewSender(cfg, logger)

	s.CardIssued("john@example.com", "john_doe", "**** **** **** 5678", time.Now().AddDate(3, 0, 0))

	var failures []string
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.ErrorLevel {
			failures = append(failures, e.Message)
		}
	}
	require.Len(t, failures, 1, "a failed delivery must be logged exactly once")
	assert.Contains(t, failures[0], "Failed to send email")
}
