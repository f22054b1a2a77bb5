package chaos

import (
	"net/http"
	"time"

	"github.com/qumplus/simuserver/pkg/httputil"
)

// StatusClientClosedRequest is written when the client goes away while the
// request is still being delayed.
const StatusClientClosedRequest = 499

// SimulatedErrorMessage is the body of an injected fault.
const SimulatedErrorMessage = "Simulated server error"

// Middleware returns a handler that runs the delay stage and then the fault
// stage before calling next.
func (i *Injector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		delayed, err := i.wait(r.Context())
		if err != nil {
			httputil.WriteError(w, StatusClientClosedRequest, "Client closed request")
			return
		}
		if delayed && i.writeTimeout > 0 {
			// Not supported by every writer (httptest); the deadline is best effort.
			_ = http.NewResponseController(w).SetWriteDeadline(time.Now().Add(i.writeTimeout))
		}

		if i.ShouldFail() {
			httputil.WriteError(w, http.StatusInternalServerError, SimulatedErrorMessage)
			return
		}

		next.ServeHTTP(w, r)
	})
}
