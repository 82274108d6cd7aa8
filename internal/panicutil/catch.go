package panicutil

import (
	"github.com/sourcegraph/conc/panics"
)

// Catch runs f and returns its error.
// If f panics, the panic is recovered and returned as *panics.ErrRecovered.
func Catch(f func() error) (err error) {
	var pc panics.Catcher
	pc.Try(func() {
		err = f()
	})
	if r := pc.Recovered(); r != nil {
		return r.AsError()
	}
	return err
}
