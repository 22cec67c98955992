package comm

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/golang/glog"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

// errorMessageMaxLength is the maximum length of the response body we will
// include into the generated error message
const errorMessageMaxLength = 80

var (
	// SendAndWaitReq is a proxy function to route the actual call to http or
	// pseudo http in tests.
	SendAndWaitReq = sendAndWaitHTTPRequest

	c = &http.Client{}
)

func sendAndWaitHTTPRequest(
	urlStr string,
	msg io.Reader,
	timeout time.Duration,
) (
	data []byte, err error,
) {
	defer err2.Handle(&err, "call http")

	URL := try.To1(url.Parse(urlStr))

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	request := try.To1(http.NewRequestWithContext(ctx, "POST", URL.String(), msg))
	request.Close = true // deferred response.Body.Close isn't always enough

	request.Header.Set("Content-Type", "application/ssi-agent-wire")

	response := try.To1(c.Do(request))

	defer func() {
		closeErr := response.Body.Close()
		if closeErr != nil {
			glog.Warningln("body.Close: ", closeErr)
		}
	}()

	data = try.To1(io.ReadAll(response.Body))
	if response.StatusCode != http.StatusOK {
		body := string(data)
		if len(body) > errorMessageMaxLength {
			body = body[:errorMessageMaxLength]
		}
		glog.Warningf("http request to %s: %d: %s",
			URL.Host, response.StatusCode, body)
	}
	return data, nil
}
