package httpapi

import "github.com/gin-gonic/gin"

func RespondOK(c *gin.Context, status int, payload gin.H) {
	c.JSON(status, payload)
}

func RespondError(c *gin.Context, status int, code string, err error) {
	body := gin.H{"error": code}
	if err != nil {
		body["detail"] = err.Error()
	}
	c.AbortWithStatusJSON(status, body)
}
