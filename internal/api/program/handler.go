package program

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"conference-app/database"
	"conference-app/internal/domain/program"
)

// TutorialDetail returns a tutorial with its ranked attendee list and whether
// the caller has joined.
func TutorialDetail(c *gin.Context) {
	var tutorial program.TutorialSession
	if err := database.DB.First(&tutorial, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Tutorial not found"})
		return
	}

	attendees, err := TutorialAttendees(database.DB, &tutorial)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load attendees"})
		return
	}

	joined := false
	if userID := c.GetUint("user_id"); userID != 0 {
		var count int64
		database.DB.Model(&program.TutorialCheckin{}).
			Where("user_id = ? AND tutorial_id = ?", userID, tutorial.ID).
			Count(&count)
		joined = count > 0
	}

	c.JSON(http.StatusOK, gin.H{
		"tutorial":  tutorial,
		"attendees": attendees,
		"joined":    joined,
	})
}

// TutorialJoin appends the caller to the tutorial's check-in order. Leaving
// and rejoining gets a fresh check-in ID, so queue position is lost.
func TutorialJoin(c *gin.Context) {
	userID := c.GetUint("user_id")
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not identified"})
		return
	}

	var tutorial program.TutorialSession
	if err := database.DB.First(&tutorial, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Tutorial not found"})
		return
	}

	checkin := program.TutorialCheckin{UserID: userID, TutorialID: tutorial.ID}
	if err := database.DB.Create(&checkin).Error; err != nil {
		// unique (user, tutorial): already joined
		c.JSON(http.StatusConflict, gin.H{"error": "Already joined"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "joined"})
}

func TutorialLeave(c *gin.Context) {
	userID := c.GetUint("user_id")
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not identified"})
		return
	}

	err := database.DB.
		Where("user_id = ? AND tutorial_id = ?", userID, c.Param("id")).
		Delete(&program.TutorialCheckin{}).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to leave"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "left"})
}

// SprintDetail returns a sprint with its attendee list.
func SprintDetail(c *gin.Context) {
	var sprint program.SprintSession
	if err := database.DB.First(&sprint, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Sprint not found"})
		return
	}

	attendees, err := SprintAttendees(database.DB, &sprint)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load attendees"})
		return
	}

	joined := false
	if userID := c.GetUint("user_id"); userID != 0 {
		var count int64
		database.DB.Model(&program.SprintCheckin{}).
			Where("user_id = ? AND sprint_id = ?", userID, sprint.ID).
			Count(&count)
		joined = count > 0
	}

	c.JSON(http.StatusOK, gin.H{
		"sprint":    sprint,
		"attendees": attendees,
		"joined":    joined,
	})
}

func SprintJoin(c *gin.Context) {
	userID := c.GetUint("user_id")
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not identified"})
		return
	}

	var sprint program.SprintSession
	if err := database.DB.First(&sprint, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Sprint not found"})
		return
	}

	checkin := program.SprintCheckin{UserID: userID, SprintID: sprint.ID}
	if err := database.DB.Create(&checkin).Error; err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Already joined"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "joined"})
}

func SprintLeave(c *gin.Context) {
	userID := c.GetUint("user_id")
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not identified"})
		return
	}

	err := database.DB.
		Where("user_id = ? AND sprint_id = ?", userID, c.Param("id")).
		Delete(&program.SprintCheckin{}).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to leave"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "left"})
}
