package checkout

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ArcaneNova/annadata-client-sub001/api/web"
	"github.com/sirupsen/logrus"
)

// SourceOpener returns the address source authenticated as the requesting
// device's user.
type SourceOpener func(ctx context.Context) (AddressSource, error)

func HandleShow(open SourceOpener, log logrus.FieldLogger) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		src, err := open(ctx)
		if err != nil {
			return fmt.Errorf("opening address source: %w", err)
		}

		f := NewFlow(src, nil, log)
		f.Load(ctx)

		return web.Respond(ctx, w, f.View(), http.StatusOK)
	}
}
