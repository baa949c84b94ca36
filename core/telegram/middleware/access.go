// Package middleware holds the telebot middleware shared by every route.
package middleware

import tele "gopkg.in/telebot.v4"

// AdminOnly lets only adminID through; everyone else gets reject. With no
// admin configured the route is closed to all.
func AdminOnly(adminID int64, reject tele.HandlerFunc) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			if u := c.Sender(); adminID != 0 && u != nil && u.ID == adminID {
				return next(c)
			}
			if reject == nil {
				return nil
			}
			return reject(c)
		}
	}
}
