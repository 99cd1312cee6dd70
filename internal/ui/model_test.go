package ui

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestModel(t *testing.T) {
	Convey("Given a notification model", t, func() {
		m := &Model{}

		Convey("When a message arrives", func() {
			cmd := m.Update("Feed added successfully")

			Convey("Then it should be shown and scheduled for removal", func() {
				So(cmd, ShouldNotBeNil)
				So(m.Notification(), ShouldEqual, "Feed added successfully")
				So(m.View("line one\nline two"), ShouldContainSubstring, "line two  ")
			})

			Convey("When an expiry for an older message arrives", func() {
				m.Update(ClearNotificationMsg{At: time.Time{}})

				Convey("Then the message should stay", func() {
					So(m.Notification(), ShouldNotBeEmpty)
				})
			})

			Convey("When its own expiry arrives", func() {
				m.Update(ClearNotificationMsg{At: m.notifiedAt})

				Convey("Then it should be hidden", func() {
					So(m.Notification(), ShouldBeEmpty)
					So(m.View("content"), ShouldEqual, "content")
				})
			})
		})
	})
}
