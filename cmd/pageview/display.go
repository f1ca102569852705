package main

import (
	"fmt"
	"image"
	"path/filepath"

	draw9 "9fans.net/go/draw"
	"9fans.net/go/plan9"
	"9fans.net/go/plan9/client"
	"9fans.net/go/plumb"
	"github.com/sirupsen/logrus"
)

const (
	darkgrey = draw9.Color(uint32(0x666666FF))
	yellow   = draw9.Color(uint32(0xFFFF00FF))

	upArrowKey      = 61454
	downArrowKey    = 128
	leftArrowKey    = 61457
	rightArrowKey   = 61458
	scrollWheelUp   = 8
	scrollWheelDown = 16
	escKey          = 27
)

// DisplayControl bundles the display connection, its input channels and
// the colors every view paints with.
type DisplayControl struct {
	display     *draw9.Display
	errch       chan error
	mctl        *draw9.Mousectl
	kctl        *draw9.Keyboardctl
	bgColor     *draw9.Image
	borderColor *draw9.Image
	fontColor   *draw9.Image

	plumber *client.Fid
	log     logrus.FieldLogger
}

func connectToDisplay(dims image.Point, log logrus.FieldLogger) *DisplayControl {
	errch := make(chan error)
	disp, err := draw9.Init(errch, "", progName, fmt.Sprintf("%dx%d", dims.X, dims.Y))
	if err != nil {
		log.WithError(err).Fatal("display: cannot connect")
	}
	kctl := disp.InitKeyboard()
	mctl := disp.InitMouse()

	return &DisplayControl{
		display:     disp,
		errch:       errch,
		mctl:        mctl,
		kctl:        kctl,
		bgColor:     disp.AllocImageMix(darkgrey, darkgrey),
		borderColor: disp.AllocImageMix(darkgrey, yellow),
		fontColor:   disp.AllocImageMix(darkgrey, yellow),
		log:         log,
	}
}

// showWaitingAndCall changes the cursor to the waiting one and executes fn
func (dctl *DisplayControl) showWaitingAndCall(fn func()) {
	if err := dctl.display.SwitchCursor(lockarrow); err != nil {
		dctl.log.WithError(err).Warn("failed to switch cursor")
	}
	fn()
	if err := dctl.display.SwitchCursor(nil); err != nil {
		dctl.log.WithError(err).Warn("failed to switch cursor")
	}
}

func (dctl *DisplayControl) cls() {
	dctl.display.Image.Draw(dctl.display.Image.Bounds(), dctl.bgColor, nil, image.Point{})
	dctl.flush()
}

func (dctl *DisplayControl) flush() {
	if err := dctl.display.Flush(); err != nil {
		dctl.log.WithError(err).Warn("display: flush")
	}
}

// reattach is called after the window was resized.
func (dctl *DisplayControl) reattach() image.Rectangle {
	if err := dctl.display.Attach(draw9.RefNone); err != nil {
		dctl.log.WithError(err).Fatal("display: failed to attach")
	}
	return dctl.display.Image.Bounds()
}

func (dctl *DisplayControl) connectToPlumber() {
	var err error
	dctl.plumber, err = plumb.Open("send", plan9.OWRITE|plan9.OCEXEC)
	if err != nil {
		dctl.log.WithError(err).Info("plumber not available")
	}
}

// plumbPage sends the path of a page file to the plumber.
func (dctl *DisplayControl) plumbPage(path string) {
	if dctl.plumber == nil {
		dctl.log.Info("plumber not available")
		return
	}

	m := plumb.Message{
		Src:  progName,
		Dir:  filepath.Dir(path),
		Type: "text",
		Data: []byte(path),
	}
	if err := m.Send(dctl.plumber); err != nil {
		dctl.log.WithError(err).Warn("plumber")
	}
}
