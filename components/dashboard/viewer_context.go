package dashboard

import "context"

type viewerContextKey struct{}

// WithViewer stores the active viewer on ctx so remote clients can forward
// user and tenant headers.
func WithViewer(ctx context.Context, viewer ViewerContext) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, viewerContextKey{}, viewer)
}

// ViewerFrom extracts the viewer stored by WithViewer.
func ViewerFrom(ctx context.Context) (ViewerContext, bool) {
	if ctx == nil {
		return ViewerContext{}, false
	}
	viewer, ok := ctx.Value(viewerContextKey{}).(ViewerContext)
	return viewer, ok
}
