package middleware

import (
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/pure-golang/mailtester/httpserver"
	"github.com/pure-golang/mailtester/logger"
)

// Recovery recovers a panic, logs it with its stack on ERROR level and
// answers with a generic JSON 500 that leaks no detail.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			err := recover()
			if err == nil {
				return
			}
			if err == http.ErrAbortHandler { //nolint:errorlint // sentinel compared by identity in net/http too
				panic(err)
			}

			rawStack := strings.ReplaceAll(string(debug.Stack()), "\t", "")
			var stack []string
			for _, line := range strings.Split(rawStack, "\n") {
				if line != "" {
					stack = append(stack, line)
				}
			}

			logger.FromContext(r.Context()).
				With("err", err).
				With("stack", stack).
				Error("Panic recovered from handler")

			_ = httpserver.WriteStatus(w, http.StatusInternalServerError, "Internal Server Error")
		}()

		next.ServeHTTP(w, r)
	})
}
