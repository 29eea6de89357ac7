package main

import (
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"
)

// ethAddressRegex matches a 0x-prefixed 20-byte hex address
var ethAddressRegex = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// isValidAddress validates an Ethereum address
func isValidAddress(address string) bool {
	return ethAddressRegex.MatchString(address)
}

// validateAddress rejects requests whose address parameter is missing or
// not a valid Ethereum address, before any handler runs
func validateAddress() gin.HandlerFunc {
	return func(c *gin.Context) {
		address := c.Param("address")
		if address == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Address is required"})
			return
		}
		if !isValidAddress(address) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid Ethereum address"})
			return
		}
		c.Next()
	}
}
