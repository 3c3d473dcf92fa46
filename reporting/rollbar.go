// Package reporting forwards unexpected server errors to Rollbar. Without a
// ROLLBAR_TOKEN it only logs.
package reporting

import (
	"log"
	"os"

	config "github.com/campusride/transport_portal/configs"
	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"
)

func Init() {
	token := config.Config("ROLLBAR_TOKEN")
	rollbar.SetToken(token)
	rollbar.SetEnvironment(config.ConfigOr("APP_ENV", "development"))
	rollbar.SetCodeVersion(config.ConfigOr("APP_VERSION", "dev"))
	if host, err := os.Hostname(); err == nil {
		rollbar.SetServerHost(host)
	}
	rollbar.SetStackTracer(errors.StackTracer)
	rollbar.SetEnabled(token != "")
	if token == "" {
		log.Println("⚠️ ROLLBAR_TOKEN not set, error reporting disabled")
	}
}

// Error reports err with request or job context attached.
func Error(err error, extras map[string]interface{}) {
	if err == nil {
		return
	}
	if extras == nil {
		rollbar.Error(err)
		return
	}
	rollbar.Error(err, extras)
}

// Flush blocks until queued reports are sent.
func Flush() {
	rollbar.Wait()
}
