package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shiftdesk/workforce-api/pkg/models"
)

// ValidateInput checks a proposed shift change without evaluating it
func (h *Handler) ValidateInput(c *gin.Context) {
	var input models.ShiftChange
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"valid": false,
			"error": err.Error(),
		})
		return
	}

	if err := validate.Struct(input); err != nil {
		c.JSON(http.StatusOK, gin.H{"valid": false, "error": err.Error()})
		return
	}

	// Check for duplicate skills
	skills := make(map[string]bool)
	for _, s := range input.RequiredSkills {
		if s == "" {
			c.JSON(http.StatusOK, gin.H{"valid": false, "error": "Empty required skill"})
			return
		}
		if skills[s] {
			c.JSON(http.StatusOK, gin.H{"valid": false, "error": "Duplicate required skill: " + s})
			return
		}
		skills[s] = true
	}

	c.JSON(http.StatusOK, gin.H{
		"valid": true,
		"stats": gin.H{
			"hours":           input.Hours(),
			"required_skills": len(input.RequiredSkills),
		},
	})
}
