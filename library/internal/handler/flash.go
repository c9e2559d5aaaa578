package handler

import (
	"encoding/base64"
	"net/http"

	jsoniter "github.com/json-iterator/go"
	"github.com/labstack/echo/v4"
)

const flashCookie = "flash"

const (
	flashSuccess = "success"
	flashError   = "error"
)

// Flash is a message carried by a redirect and shown once by the next page.
type Flash struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func setFlash(c echo.Context, kind, message string) {
	data, err := json.Marshal(Flash{Kind: kind, Message: message})
	if err != nil {
		return
	}
	c.SetCookie(&http.Cookie{
		Name:     flashCookie,
		Value:    base64.RawURLEncoding.EncodeToString(data),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// popFlash reads the pending flash, if any, and expires the cookie.
func popFlash(c echo.Context) *Flash {
	cookie, err := c.Cookie(flashCookie)
	if err != nil || cookie.Value == "" {
		return nil
	}
	c.SetCookie(&http.Cookie{
		Name:     flashCookie,
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	data, err := base64.RawURLEncoding.DecodeString(cookie.Value)
	if err != nil {
		return nil
	}
	var f Flash
	if err = json.Unmarshal(data, &f); err != nil || f.Message == "" {
		return nil
	}
	return &f
}
