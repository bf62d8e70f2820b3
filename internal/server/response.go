package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const msgNotFound = "not found"

func jsonOK(c *gin.Context, v any) {
	c.JSON(http.StatusOK, v)
}

func jsonCreated(c *gin.Context, v any) {
	c.JSON(http.StatusCreated, v)
}

func jsonBadRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

func jsonNotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": msgNotFound})
}

func jsonServerErr(c *gin.Context, msg string) {
	c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
}
