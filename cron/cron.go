package cron

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sarthakjain/careslot/db"
	"github.com/sarthakjain/careslot/models"
	"github.com/sarthakjain/careslot/scheduling"
	"github.com/sarthakjain/careslot/utils"
)

const defaultPendingTTLDays = 7

// StartCronJobs initializes and starts the cron scheduler for reservation
// housekeeping: refusing stale pending requests and sending consultation
// reminders.
func StartCronJobs(registry *scheduling.Registry) {
	c := cron.New()

	// Hourly sweep for pending reservations the professional never answered.
	_, err := c.AddFunc("0 * * * *", func() { refuseStalePending(registry) })
	if err != nil {
		log.Fatalf("Failed to add cron job: %v", err)
	}

	// Run every minute to check for consultations in the next hour.
	_, err = c.AddFunc("* * * * *", sendConsultationReminders)
	if err != nil {
		log.Fatalf("Failed to add cron job: %v", err)
	}

	c.Start()
	log.Println("Cron job scheduler started for reservation housekeeping")
}

// refuseStalePending answers the never-decided reservations on the
// professional's behalf. The TTL is configurable; the booking flow itself
// never expires anything.
func refuseStalePending(registry *scheduling.Registry) {
	ttlDays := defaultPendingTTLDays
	if v := os.Getenv("RESERVATION_PENDING_TTL_DAYS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			ttlDays = parsed
		}
	}

	n, err := registry.AutoRefuseStale(context.Background(), time.Duration(ttlDays)*24*time.Hour)
	if err != nil {
		log.Printf("Error refusing stale pending reservations: %v", err)
		return
	}
	if n > 0 {
		log.Printf("Auto-refused %d stale pending reservations", n)
	}
}

// sendConsultationReminders checks for paid consultations and sends reminders
func sendConsultationReminders() {
	now := time.Now()
	// Look for consultations starting in the next hour
	startWindow := now.Add(55 * time.Minute)
	endWindow := now.Add(65 * time.Minute)

	var consultations []models.Consultation
	err := db.DB.Preload("Reservation.Patient").Preload("Reservation.Professional").
		Joins("JOIN reservations ON reservations.id = consultations.reservation_id").
		Where("reservations.status = ? AND consultations.scheduled_at BETWEEN ? AND ?",
			models.StatusPaid, startWindow, endWindow).
		Find(&consultations).Error
	if err != nil {
		log.Printf("Error fetching consultations for reminders: %v", err)
		return
	}

	for _, consultation := range consultations {
		if err := sendReminderEmail(&consultation); err != nil {
			log.Printf("Failed to send reminder for consultation %d: %v", consultation.ID, err)
			continue
		}
		log.Printf("Sent reminder for consultation %d to %s", consultation.ID, consultation.Reservation.Patient.Email)
	}
}

// sendReminderEmail constructs and sends the reminder email
func sendReminderEmail(consultation *models.Consultation) error {
	patient := consultation.Reservation.Patient
	professional := consultation.Reservation.Professional

	subject := "Reminder: Upcoming Consultation"
	body := fmt.Sprintf(`
		<p>Dear %s,</p>
		<p>This is a reminder for your consultation scheduled in one hour.</p>
		<p><strong>Details:</strong></p>
		<ul>
			<li><strong>Professional:</strong> %s</li>
			<li><strong>Scheduled At:</strong> %s</li>
			<li><strong>Duration:</strong> %d minutes</li>
			<li><strong>Access Link:</strong> %s</li>
		</ul>
		<p>Please be on time. If you need to reschedule, contact us as soon as possible.</p>
	`, patient.Name, professional.Name,
		consultation.ScheduledAt.Format("2006-01-02 15:04:05"),
		consultation.DurationMinutes,
		consultation.AccessLink)

	return utils.SendEmail(patient.Email, subject, body)
}
