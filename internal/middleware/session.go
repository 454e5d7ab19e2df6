package middleware

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	//カートのセッションcookie
	CartSessionCookie = "cart_session"

	//echo contextのキー
	CtxCartSessionKey = "cart_session_id"

	cartSessionTTL = 14 * 24 * time.Hour
)

// CartSession はカート用のセッションIDを保証する。
// 無ければ発行してcookieに積む。アカウントとは無関係の匿名ID。
func CartSession() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sid := ""
			if ck, err := c.Cookie(CartSessionCookie); err == nil && ck.Value != "" {
				sid = ck.Value
			}

			if sid == "" {
				sid = uuid.NewString()
				c.SetCookie(&http.Cookie{
					Name:     CartSessionCookie,
					Value:    sid,
					Path:     "/",
					Expires:  time.Now().Add(cartSessionTTL),
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
			}

			c.Set(CtxCartSessionKey, sid)
			return next(c)
		}
	}
}

// GetCartSessionID はmiddlewareが積んだセッションIDを取り出す。
func GetCartSessionID(c echo.Context) (string, bool) {
	v := c.Get(CtxCartSessionKey)
	sid, ok := v.(string)
	if !ok || sid == "" {
		return "", false
	}
	return sid, true
}
