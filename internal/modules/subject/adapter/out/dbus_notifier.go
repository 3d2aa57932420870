package out

import (
	"context"
	"fmt"

	"github.com/godbus/dbus/v5"

	subjectout "studytrack/internal/modules/subject/port/out"
)

const appName = "studytrack"

// DBusNotifier posts desktop notifications through org.freedesktop.Notifications
// on the user's session bus.
type DBusNotifier struct {
	connect func() (*dbus.Conn, error)
}

var _ subjectout.Notifier = (*DBusNotifier)(nil)

func NewDBusNotifier() *DBusNotifier {
	return &DBusNotifier{connect: func() (*dbus.Conn, error) { return dbus.ConnectSessionBus() }}
}

func (n *DBusNotifier) Notify(ctx context.Context, summary, body string) error {
	conn, err := n.connect()
	if err != nil {
		return fmt.Errorf("connect session bus: %w", err)
	}
	defer conn.Close()

	obj := conn.Object("org.freedesktop.Notifications", "/org/freedesktop/Notifications")
	call := obj.CallWithContext(ctx, "org.freedesktop.Notifications.Notify", 0, notificationArgs(summary, body)...)
	if call.Err != nil {
		return fmt.Errorf("send notification: %w", call.Err)
	}
	return nil
}

// notificationArgs follows the Notify signature (susssasa{sv}i) of the
// desktop notifications interface.
func notificationArgs(summary, body string) []any {
	return []any{
		appName,
		uint32(0),
		"appointment-soon",
		summary,
		body,
		[]string{},
		map[string]dbus.Variant{
			"urgency": dbus.MakeVariant(byte(1)),
		},
		int32(5000),
	}
}

type NoopNotifier struct{}

func (NoopNotifier) Notify(context.Context, string, string) error { return nil }
