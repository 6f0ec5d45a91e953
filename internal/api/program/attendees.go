package program

import (
	"math"

	"gorm.io/gorm"

	"conference-app/internal/domain/program"
	"conference-app/internal/domain/tickets"
	"conference-app/internal/domain/users"
)

// Attendee is one check-in row as shown on a session page, in check-in order.
type Attendee struct {
	Name       string `json:"name"`
	Picture    string `json:"picture"`
	Registered bool   `json:"registered"`
	Waiting    bool   `json:"waiting"`
}

type checkinRow struct {
	ID   uint
	User users.User
}

// rankAttendees orders check-ins by ascending ID and marks everyone past the
// cut line as waiting. The cut line is the ID of the check-in sitting at the
// capacity'th position; capacity <= 0 means unlimited. Pure read.
func rankAttendees(db *gorm.DB, rows []checkinRow, capacity int) ([]Attendee, error) {
	cutLine := uint(math.MaxUint32)
	if capacity > 0 && len(rows) > capacity {
		cutLine = rows[capacity-1].ID
	}

	attendees := make([]Attendee, 0, len(rows))
	for _, row := range rows {
		var paid int64
		err := db.Model(&tickets.Registration{}).
			Where("user_id = ? AND payment_status = ?", row.User.ID, tickets.StatusPaid).
			Count(&paid).Error
		if err != nil {
			return nil, err
		}

		attendees = append(attendees, Attendee{
			Name:       row.User.DisplayName(),
			Picture:    row.User.Image,
			Registered: paid > 0,
			Waiting:    row.ID > cutLine,
		})
	}
	return attendees, nil
}

// TutorialAttendees ranks a tutorial's check-ins against its room capacity.
func TutorialAttendees(db *gorm.DB, tutorial *program.TutorialSession) ([]Attendee, error) {
	var checkins []program.TutorialCheckin
	err := db.Preload("User").
		Where("tutorial_id = ?", tutorial.ID).
		Order("id ASC").
		Find(&checkins).Error
	if err != nil {
		return nil, err
	}

	rows := make([]checkinRow, 0, len(checkins))
	for i := range checkins {
		rows = append(rows, checkinRow{ID: checkins[i].ID, User: checkins[i].User})
	}
	return rankAttendees(db, rows, program.Seats(tutorial.Capacity))
}

// SprintAttendees lists a sprint's check-ins. Sprints have no fixed room, so
// nobody waits.
func SprintAttendees(db *gorm.DB, sprint *program.SprintSession) ([]Attendee, error) {
	var checkins []program.SprintCheckin
	err := db.Preload("User").
		Where("sprint_id = ?", sprint.ID).
		Order("id ASC").
		Find(&checkins).Error
	if err != nil {
		return nil, err
	}

	rows := make([]checkinRow, 0, len(checkins))
	for i := range checkins {
		rows = append(rows, checkinRow{ID: checkins[i].ID, User: checkins[i].User})
	}
	return rankAttendees(db, rows, 0)
}
