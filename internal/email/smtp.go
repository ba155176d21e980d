package email

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"gopkg.in/gomail.v2"

	"github.com/sanvicente/scheduling-api/internal/config"
	"github.com/sanvicente/scheduling-api/internal/model"
)

const confirmationSubject = "Medical Appointment Confirmation - Hospital San Vicente"

type smtpService struct {
	cfg config.SMTPConfig
}

func NewSMTPService(cfg config.SMTPConfig) Service {
	return &smtpService{cfg: cfg}
}

func (s *smtpService) SendConfirmation(ctx context.Context, appointment *model.Appointment) Outcome {
	if appointment.Patient == nil || appointment.Patient.Email == "" {
		return Outcome{Success: false, Message: "patient has no email address on record"}
	}

	msg := gomail.NewMessage()
	msg.SetAddressHeader("From", s.cfg.Sender, s.cfg.SenderName)
	msg.SetAddressHeader("To", appointment.Patient.Email, appointment.Patient.FullName)
	msg.SetHeader("Subject", confirmationSubject)
	msg.SetBody("text/html", confirmationBody(appointment))

	dialer := gomail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.Sender, s.cfg.Password)

	// gomail has no context support, so the dial-and-send runs in its own
	// goroutine and the deadline is enforced here. A timed-out send is a
	// failed outcome; the goroutine is left to finish against a dead
	// connection.
	done := make(chan error, 1)
	go func() {
		done <- dialer.DialAndSend(msg)
	}()

	select {
	case err := <-done:
		if err != nil {
			log.Error().Err(err).Str("to", appointment.Patient.Email).Msg("failed to send confirmation email")
			return Outcome{Success: false, Message: fmt.Sprintf("failed to send email: %v", err)}
		}
		log.Info().Str("to", appointment.Patient.Email).Msg("confirmation email sent")
		return Outcome{Success: true, Message: fmt.Sprintf("confirmation email sent to %s", appointment.Patient.Email)}
	case <-ctx.Done():
		log.Error().Err(ctx.Err()).Str("to", appointment.Patient.Email).Msg("confirmation email timed out")
		return Outcome{Success: false, Message: fmt.Sprintf("email send timed out: %v", ctx.Err())}
	}
}

func confirmationBody(appointment *model.Appointment) string {
	doctorName := ""
	specialty := ""
	if appointment.Doctor != nil {
		doctorName = appointment.Doctor.FullName
		specialty = appointment.Doctor.Specialty
	}

	return fmt.Sprintf(`
	<html>
	<head>
		<style>
			body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
			.container { max-width: 600px; margin: 0 auto; padding: 20px; }
			.header { background-color: #0d6efd; color: white; padding: 20px; text-align: center; }
			.content { background-color: #f8f9fa; padding: 20px; margin: 20px 0; }
			.info-row { margin: 10px 0; }
			.label { font-weight: bold; }
			.footer { text-align: center; color: #6c757d; font-size: 12px; margin-top: 20px; }
		</style>
	</head>
	<body>
		<div class='container'>
			<div class='header'>
				<h1>Hospital San Vicente</h1>
			</div>
			<div class='content'>
				<h2>Medical Appointment Confirmation</h2>
				<p>Dear <strong>%s</strong>,</p>
				<p>Your medical appointment has been confirmed.</p>

				<div class='info-row'><span class='label'>Doctor:</span> Dr. %s</div>
				<div class='info-row'><span class='label'>Specialty:</span> %s</div>
				<div class='info-row'><span class='label'>Date:</span> %s</div>
				<div class='info-row'><span class='label'>Time:</span> %s</div>

				<p style='margin-top: 20px;'><strong>Important:</strong> please arrive 10 minutes before your appointment.</p>
			</div>
			<div class='footer'>
				<p>This is an automated message, please do not reply.</p>
				<p>Hospital San Vicente - Appointment Management System</p>
			</div>
		</div>
	</body>
	</html>`,
		appointment.Patient.FullName,
		doctorName,
		specialty,
		appointment.AppointmentDate.Format("02/01/2006"),
		appointment.AppointmentTime.String(),
	)
}
