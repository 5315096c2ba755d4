package models

import "time"

// TipEvent — событие выдачи совета пользователю, публикуется в брокер
// и доставляется получателю по почте.
type TipEvent struct {
	UserCNP  string    `json:"user_cnp"`
	Email    string    `json:"email"`
	FullName string    `json:"full_name"`
	Tip      string    `json:"tip"`
	SentAt   time.Time `json:"sent_at"`
}

// PunishmentEvent — событие уведомления о наказании.
type PunishmentEvent struct {
	UserCNP  string    `json:"user_cnp"`
	Email    string    `json:"email"`
	FullName string    `json:"full_name"`
	Message  string    `json:"message"`
	SentAt   time.Time `json:"sent_at"`
}
