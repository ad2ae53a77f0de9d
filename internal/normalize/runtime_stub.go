//go:build !govips || !cgo

package normalize

func Startup() error {
	return nil
}

func Shutdown() {}

func newRenderer() (renderer, error) {
	return imagingRenderer{}, nil
}
