package services

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/credit-risk-engine/internal/lib/sl"
	"github.com/magabrotheeeer/credit-risk-engine/internal/lib/smtp"
	"github.com/magabrotheeeer/credit-risk-engine/internal/models"
)

// SenderService отправляет почтовые уведомления по событиям вовлечённости
// из брокера.
type SenderService struct {
	transport smtp.TransportInterface
	log       *slog.Logger
}

// NewSenderService создает новый экземпляр SenderService.
func NewSenderService(transport smtp.TransportInterface, log *slog.Logger) *SenderService {
	return &SenderService{
		transport: transport,
		log:       log,
	}
}

// SendTipNotification отправляет пользователю письмо с финансовым советом.
func (s *SenderService) SendTipNotification(body []byte) error {
	var event models.TipEvent
	if err := json.Unmarshal(body, &event); err != nil {
		s.log.Error("failed to unmarshal tip event", sl.Err(err))
		return fmt.Errorf("error unmarshalling message: %w", err)
	}

	to := []string{event.Email}
	subject := "Финансовый совет дня"
	bodyText := fmt.Sprintf("Здравствуйте, %s!\n\n%s\n\nВаш банк заботится о вашей финансовой дисциплине.",
		event.FullName, event.Tip)

	return s.sendEmail(to, subject, bodyText)
}

// SendPunishmentNotification отправляет пользователю уведомление о
// наказании за нарушение правил обслуживания.
func (s *SenderService) SendPunishmentNotification(body []byte) error {
	var event models.PunishmentEvent
	if err := json.Unmarshal(body, &event); err != nil {
		s.log.Error("failed to unmarshal punishment event", sl.Err(err))
		return fmt.Errorf("error unmarshalling message: %w", err)
	}

	to := []string{event.Email}
	subject := "Уведомление о взыскании"
	bodyText := fmt.Sprintf("Здравствуйте, %s!\n\n%s\n\nПовторные нарушения ведут к дополнительным взысканиям.",
		event.FullName, event.Message)

	return s.sendEmail(to, subject, bodyText)
}

func (s *SenderService) sendEmail(to []string, subject, bodyText string) error {
	msg := strings.Join([]string{
		"From: " + s.transport.GetSMTPUser(),
		"To: " + strings.Join(to, ";"),
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		bodyText,
	}, "\r\n")

	client, err := s.transport.Connect()
	if err != nil {
		s.log.Error("failed to connect to SMTP server", sl.Err(err))
		return err
	}
	defer client.Close()

	if err := client.Mail(s.transport.GetSMTPUser()); err != nil {
		s.log.Error("failed to set MAIL FROM", sl.Err(err))
		return err
	}

	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			s.log.Error("failed to set RCPT TO", slog.String("recipient", addr), sl.Err(err))
			return err
		}
	}

	wc, err := client.Data()
	if err != nil {
		s.log.Error("failed to get data writer", sl.Err(err))
		return err
	}

	if _, err = wc.Write([]byte(msg)); err != nil {
		s.log.Error("failed to write email body", sl.Err(err))
		return err
	}

	if err = wc.Close(); err != nil {
		s.log.Error("failed to close data writer", sl.Err(err))
		return err
	}

	if err = client.Quit(); err != nil {
		s.log.Error("failed to quit SMTP client", sl.Err(err))
		return err
	}

	s.log.Info("email sent successfully", slog.String("to", strings.Join(to, ";")))
	return nil
}
