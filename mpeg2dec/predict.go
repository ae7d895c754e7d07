/*
DESCRIPTION
  predict.go provides motion-compensated prediction of macroblocks:
  selection of the prediction variants implied by the macroblock's
  motion parameters, and the half-sample interpolating pixel predictor
  they share.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package mpeg2dec

import "github.com/pkg/errors"

// ErrInvalidMotionType indicates a motion type outside the set valid for
// the picture structure and prediction directions of the macroblock. The
// macroblock is skipped entirely; callers should treat the error as a
// recoverable decode warning and consider the picture suspect.
var ErrInvalidMotionType = errors.New("invalid motion type")

// FormPredictions reconstructs the motion-compensated prediction of the
// macroblock with top-left luma position (bx, by), writing the predicted
// samples to the current frame planes. mbType is the macroblock type
// flag set, motionType the frame or field motion type code, mv the
// decoded motion parameters and stwType the spatial-temporal weight
// class. The forward prediction (run for P pictures even without a
// forward motion flag) completes before any backward prediction, which
// then averages into the forward result.
//
// The arithmetic follows section 7.6 of the specifications, with the
// prediction combining of 7.6.7 folded into plane offsets, strides and
// the order of the sub-predictions.
func (p *Picture) FormPredictions(bx, by, mbType int, motionType MotionType, mv *MotionData, stwType int) error {
	if err := p.checkMotionType(mbType, motionType); err != nil {
		return err
	}

	// stwTop and stwBot classify the top and bottom predictions:
	// 0 temporal only, 1 average with the stored spatial prediction,
	// 2 spatial only (the temporal prediction is skipped).
	stwTop, stwBot := stwType%3, stwType/3

	var tr [2]predTrace

	if mbType&MBMotionForward != 0 || p.CodingType == PPicture {
		if p.Structure == FramePicture {
			p.forwardFrame(bx, by, mbType, motionType, mv, stwTop, stwBot, &tr)
		} else {
			p.forwardField(bx, by, mbType, motionType, mv, stwTop, &tr)
		}
		// Any backward prediction now averages with the forward result.
		stwTop, stwBot = 1, 1
	}

	if mbType&MBMotionBackward != 0 {
		if p.Structure == FramePicture {
			p.backwardFrame(bx, by, motionType, mv, stwTop, stwBot, &tr)
		} else {
			p.backwardField(bx, by, motionType, mv, stwTop, &tr)
		}
	}

	p.tracePredictions(&tr)
	return nil
}

// checkMotionType validates motionType against the prediction directions
// in use, before anything is written. Dual prime is forward only.
func (p *Picture) checkMotionType(mbType int, mt MotionType) error {
	fwdOK := mt >= MCField && mt <= MCDMV
	bwdOK := mt == MCField || mt == MCFrame
	if (mbType&MBMotionForward != 0 && !fwdOK) || (mbType&MBMotionBackward != 0 && !bwdOK) {
		return errors.Wrapf(ErrInvalidMotionType, "motion type %d with structure %d and macroblock type %#x", mt, p.Structure, mbType)
	}
	return nil
}

// forwardFrame forms the forward prediction of a frame picture
// macroblock. Frame motion predicts the top and bottom field halves from
// the co-parity reference fields with the single transmitted vector;
// field motion predicts each half from a selected reference field with
// its own vector; dual prime seeds each half from the same parity field
// and averages in the opposite parity derived prediction.
func (p *Picture) forwardFrame(bx, by, mbType int, mt MotionType, mv *MotionData, stwTop, stwBot int, tr *[2]predTrace) {
	w := p.Width
	switch {
	case mt == MCFrame || mbType&MBMotionForward == 0:
		// Split into field halves so spatial weighting can gate each.
		if stwTop < 2 {
			p.formPrediction(&p.Forward, 0, &p.Current, 0, w, w<<1, 16, 8, bx, by, mv.PMV[0][0][0], mv.PMV[0][0][1], stwTop != 0)
		}
		if stwBot < 2 {
			p.formPrediction(&p.Forward, 1, &p.Current, 1, w, w<<1, 16, 8, bx, by, mv.PMV[0][0][0], mv.PMV[0][0][1], stwBot != 0)
		}
		tr[0].setFwd("MC_FRAME", 0, 0, mv.PMV[0][0][0], mv.PMV[0][0][1])
		tr[1].setFwd("MC_FRAME", 1, 1, mv.PMV[0][0][0], mv.PMV[0][0][1])

	case mt == MCField:
		// Vertical components are frame coordinates; halve for the field
		// sized destination.
		if stwTop < 2 {
			p.formPrediction(&p.Forward, mv.FieldSelect[0][0], &p.Current, 0, w<<1, w<<1, 16, 8, bx, by>>1, mv.PMV[0][0][0], mv.PMV[0][0][1]>>1, stwTop != 0)
		}
		if stwBot < 2 {
			p.formPrediction(&p.Forward, mv.FieldSelect[1][0], &p.Current, 1, w<<1, w<<1, 16, 8, bx, by>>1, mv.PMV[1][0][0], mv.PMV[1][0][1]>>1, stwBot != 0)
		}
		tr[0].setFwd("MC_FIELD", 0, mv.FieldSelect[0][0], mv.PMV[0][0][0], mv.PMV[0][0][1]>>1)
		tr[1].setFwd("MC_FIELD", 1, mv.FieldSelect[1][0], mv.PMV[1][0][0], mv.PMV[1][0][1]>>1)

	default: // MCDMV
		var dmv [2][2]int
		p.DualPrimeArithmetic(&dmv, mv.DMVector, mv.PMV[0][0][0], mv.PMV[0][0][1]>>1)

		if stwTop < 2 {
			// Predict the top field from the top field, then average in
			// the derived prediction from the bottom field.
			p.formPrediction(&p.Forward, 0, &p.Current, 0, w<<1, w<<1, 16, 8, bx, by>>1, mv.PMV[0][0][0], mv.PMV[0][0][1]>>1, false)
			p.formPrediction(&p.Forward, 1, &p.Current, 0, w<<1, w<<1, 16, 8, bx, by>>1, dmv[0][0], dmv[0][1], true)
		}
		if stwBot < 2 {
			// Likewise for the bottom field, from bottom then top.
			p.formPrediction(&p.Forward, 1, &p.Current, 1, w<<1, w<<1, 16, 8, bx, by>>1, mv.PMV[0][0][0], mv.PMV[0][0][1]>>1, false)
			p.formPrediction(&p.Forward, 0, &p.Current, 1, w<<1, w<<1, 16, 8, bx, by>>1, dmv[1][0], dmv[1][1], true)
		}
		tr[0].setFwd("MC_DMV", 0, 0, mv.PMV[0][0][0], mv.PMV[0][0][1]>>1)
		tr[0].setBwd("MC_DMV", 0, 1, dmv[0][0], dmv[0][1])
		tr[1].setFwd("MC_DMV", 1, 1, mv.PMV[0][0][0], mv.PMV[0][0][1]>>1)
		tr[1].setBwd("MC_DMV", 1, 0, dmv[1][0], dmv[1][1])
	}
}

// forwardField forms the forward prediction of a field picture
// macroblock. Field motion predicts the full 16x16 field region; 16x8
// motion predicts the upper and lower halves with independent vectors
// and field selects; dual prime seeds from the same parity field and
// averages in the opposite parity derived prediction.
func (p *Picture) forwardField(bx, by, mbType int, mt MotionType, mv *MotionData, stwTop int, tr *[2]predTrace) {
	w := p.Width
	cur := 0
	if p.Structure == BottomField {
		cur = 1
	}
	pred := p.fieldReference(cur, mv.FieldSelect[0][0])

	switch {
	case mt == MCField || mbType&MBMotionForward == 0:
		if stwTop < 2 {
			p.formPrediction(pred, mv.FieldSelect[0][0], &p.Current, 0, w<<1, w<<1, 16, 16, bx, by, mv.PMV[0][0][0], mv.PMV[0][0][1], stwTop != 0)
		}
		tr[0].setFwd("MC_FIELD", cur, mv.FieldSelect[0][0], mv.PMV[0][0][0], mv.PMV[0][0][1])

	case mt == MC16x8:
		if stwTop < 2 {
			p.formPrediction(pred, mv.FieldSelect[0][0], &p.Current, 0, w<<1, w<<1, 16, 8, bx, by, mv.PMV[0][0][0], mv.PMV[0][0][1], stwTop != 0)

			// The lower half re-evaluates the reference selection with
			// its own field select.
			pred = p.fieldReference(cur, mv.FieldSelect[1][0])
			p.formPrediction(pred, mv.FieldSelect[1][0], &p.Current, 0, w<<1, w<<1, 16, 8, bx, by+8, mv.PMV[1][0][0], mv.PMV[1][0][1], stwTop != 0)
		}
		tr[0].setFwd("MC_16X8", cur, mv.FieldSelect[0][0], mv.PMV[0][0][0], mv.PMV[0][0][1])
		tr[1].setFwd("MC_16X8", cur, mv.FieldSelect[1][0], mv.PMV[1][0][0], mv.PMV[1][0][1])

	default: // MCDMV
		opp := &p.Forward
		if p.SecondField {
			opp = &p.Backward // Opposite parity field of the same frame.
		}

		var dmv [2][2]int
		p.DualPrimeArithmetic(&dmv, mv.DMVector, mv.PMV[0][0][0], mv.PMV[0][0][1])

		// Predict from the field of the same parity, then average in the
		// derived prediction from the field of opposite parity.
		p.formPrediction(&p.Forward, cur, &p.Current, 0, w<<1, w<<1, 16, 16, bx, by, mv.PMV[0][0][0], mv.PMV[0][0][1], false)
		p.formPrediction(opp, 1-cur, &p.Current, 0, w<<1, w<<1, 16, 16, bx, by, dmv[0][0], dmv[0][1], true)

		tr[0].setFwd("MC_DMV", cur, cur, mv.PMV[0][0][0], mv.PMV[0][0][1])
		tr[0].setBwd("MC_DMV", cur, 1-cur, dmv[0][0], dmv[0][1])
	}
}

// fieldReference selects the reference frame for a forward field
// prediction. During the second field of a P field pair a prediction
// from the opposite parity comes from the first field of the frame being
// decoded, which resides in the backward anchor.
func (p *Picture) fieldReference(currentField, fieldSelect int) *Frame {
	if p.CodingType == PPicture && p.SecondField && currentField != fieldSelect {
		return &p.Backward
	}
	return &p.Forward
}

// backwardFrame forms the backward prediction of a frame picture
// macroblock. Any forward prediction has already run, so the weight
// classes passed here select averaging into it.
func (p *Picture) backwardFrame(bx, by int, mt MotionType, mv *MotionData, stwTop, stwBot int, tr *[2]predTrace) {
	w := p.Width
	if mt == MCFrame {
		if stwTop < 2 {
			p.formPrediction(&p.Backward, 0, &p.Current, 0, w, w<<1, 16, 8, bx, by, mv.PMV[0][1][0], mv.PMV[0][1][1], stwTop != 0)
		}
		if stwBot < 2 {
			p.formPrediction(&p.Backward, 1, &p.Current, 1, w, w<<1, 16, 8, bx, by, mv.PMV[0][1][0], mv.PMV[0][1][1], stwBot != 0)
		}
		tr[0].setBwd("MC_FRAME", 0, 0, mv.PMV[0][1][0], mv.PMV[0][1][1])
		tr[1].setBwd("MC_FRAME", 1, 1, mv.PMV[0][1][0], mv.PMV[0][1][1])
		return
	}

	// MCField.
	if stwTop < 2 {
		p.formPrediction(&p.Backward, mv.FieldSelect[0][1], &p.Current, 0, w<<1, w<<1, 16, 8, bx, by>>1, mv.PMV[0][1][0], mv.PMV[0][1][1]>>1, stwTop != 0)
	}
	if stwBot < 2 {
		p.formPrediction(&p.Backward, mv.FieldSelect[1][1], &p.Current, 1, w<<1, w<<1, 16, 8, bx, by>>1, mv.PMV[1][1][0], mv.PMV[1][1][1]>>1, stwBot != 0)
	}
	tr[0].setBwd("MC_FIELD", 0, mv.FieldSelect[0][1], mv.PMV[0][1][0], mv.PMV[0][1][1]>>1)
	tr[1].setBwd("MC_FIELD", 1, mv.FieldSelect[1][1], mv.PMV[1][1][0], mv.PMV[1][1][1]>>1)
}

// backwardField forms the backward prediction of a field picture
// macroblock.
func (p *Picture) backwardField(bx, by int, mt MotionType, mv *MotionData, stwTop int, tr *[2]predTrace) {
	w := p.Width
	cur := 0
	if p.Structure == BottomField {
		cur = 1
	}

	if mt == MCField {
		p.formPrediction(&p.Backward, mv.FieldSelect[0][1], &p.Current, 0, w<<1, w<<1, 16, 16, bx, by, mv.PMV[0][1][0], mv.PMV[0][1][1], stwTop != 0)
		tr[0].setBwd("MC_FIELD", cur, mv.FieldSelect[0][1], mv.PMV[0][1][0], mv.PMV[0][1][1])
		return
	}

	// MC16x8.
	p.formPrediction(&p.Backward, mv.FieldSelect[0][1], &p.Current, 0, w<<1, w<<1, 16, 8, bx, by, mv.PMV[0][1][0], mv.PMV[0][1][1], stwTop != 0)
	p.formPrediction(&p.Backward, mv.FieldSelect[1][1], &p.Current, 0, w<<1, w<<1, 16, 8, bx, by+8, mv.PMV[1][1][0], mv.PMV[1][1][1], stwTop != 0)
	tr[0].setBwd("MC_16X8", cur, mv.FieldSelect[0][1], mv.PMV[0][1][0], mv.PMV[0][1][1])
	tr[1].setBwd("MC_16X8", cur, mv.FieldSelect[1][1], mv.PMV[1][1][0], mv.PMV[1][1][1])
}

// formPrediction predicts one block for all three components. sfield and
// dfield select the interleaved source and destination fields, reached
// by offsetting the plane base a half inter-row stride; lx is the raster
// line increment used for addressing and half-sample taps, and lx2 the
// stride between successive rows of the block. Chroma parameters are
// scaled from the luma ones according to the chroma format, with chroma
// vector components divided, not shifted, so negative components
// truncate toward zero.
func (p *Picture) formPrediction(src *Frame, sfield int, dst *Frame, dfield int, lx, lx2, w, h, x, y, dx, dy int, average bool) {
	formComponentPrediction(src.Y[fieldOffset(sfield, lx2):], dst.Y[fieldOffset(dfield, lx2):], lx, lx2, w, h, x, y, dx, dy, average)

	if p.ChromaFormat != Chroma444 {
		lx >>= 1
		lx2 >>= 1
		w >>= 1
		x >>= 1
		dx /= 2
	}
	if p.ChromaFormat == Chroma420 {
		h >>= 1
		y >>= 1
		dy /= 2
	}

	formComponentPrediction(src.Cb[fieldOffset(sfield, lx2):], dst.Cb[fieldOffset(dfield, lx2):], lx, lx2, w, h, x, y, dx, dy, average)
	formComponentPrediction(src.Cr[fieldOffset(sfield, lx2):], dst.Cr[fieldOffset(dfield, lx2):], lx, lx2, w, h, x, y, dx, dy, average)
}

func fieldOffset(field, lx2 int) int {
	if field != 0 {
		return lx2 >> 1
	}
	return 0
}

// formComponentPrediction predicts a w by h block of one plane. The low
// bits of the half-sample vector (dx, dy) select one of four
// interpolation cases, each rounding upward; the remaining bits address
// the source on the integer sample grid. With average set, the computed
// prediction is combined with the stored one by upward rounded
// averaging, as used for bidirectional and dual prime predictions.
func formComponentPrediction(src, dst []uint8, lx, lx2, w, h, x, y, dx, dy int, average bool) {
	// Integer sample vector and half-sample flags.
	xint, yint := dx>>1, dy>>1
	xh, yh := dx&1, dy&1

	// Linear addresses of the source and destination walks.
	s := lx*(y+yint) + x + xint
	d := lx*y + x

	switch {
	case xh == 0 && yh == 0:
		for j := 0; j < h; j++ {
			if average {
				for i := 0; i < w; i++ {
					v := int(dst[d+i]) + int(src[s+i])
					if v >= 0 {
						v++
					}
					dst[d+i] = uint8(v >> 1)
				}
			} else {
				copy(dst[d:d+w], src[s:s+w])
			}
			s += lx2
			d += lx2
		}

	case xh == 0: // Vertical half-sample only.
		for j := 0; j < h; j++ {
			for i := 0; i < w; i++ {
				pel := (int(src[s+i]) + int(src[s+i+lx]) + 1) >> 1
				if average {
					v := int(dst[d+i]) + pel
					if v >= 0 {
						v++
					}
					dst[d+i] = uint8(v >> 1)
				} else {
					dst[d+i] = uint8(pel)
				}
			}
			s += lx2
			d += lx2
		}

	case yh == 0: // Horizontal half-sample only.
		for j := 0; j < h; j++ {
			for i := 0; i < w; i++ {
				pel := (int(src[s+i]) + int(src[s+i+1]) + 1) >> 1
				if average {
					v := int(dst[d+i]) + pel
					if v >= 0 {
						v++
					}
					dst[d+i] = uint8(v >> 1)
				} else {
					dst[d+i] = uint8(pel)
				}
			}
			s += lx2
			d += lx2
		}

	default: // Horizontal and vertical half-sample.
		for j := 0; j < h; j++ {
			for i := 0; i < w; i++ {
				pel := (int(src[s+i]) + int(src[s+i+1]) + int(src[s+i+lx]) + int(src[s+i+lx+1]) + 2) >> 2
				if average {
					v := int(dst[d+i]) + pel
					if v >= 0 {
						v++
					}
					dst[d+i] = uint8(v >> 1)
				} else {
					dst[d+i] = uint8(pel)
				}
			}
			s += lx2
			d += lx2
		}
	}
}

// predTrace records one sub-prediction for the trace hook.
type predTrace struct {
	mode     string
	dstField int

	fwd                  bool
	fwdField, fwdX, fwdY int

	bwd                  bool
	bwdField, bwdX, bwdY int
}

func (t *predTrace) setFwd(mode string, dstField, srcField, mvx, mvy int) {
	t.mode, t.dstField = mode, dstField
	t.fwd, t.fwdField, t.fwdX, t.fwdY = true, srcField, mvx, mvy
}

func (t *predTrace) setBwd(mode string, dstField, srcField, mvx, mvy int) {
	t.mode, t.dstField = mode, dstField
	t.bwd, t.bwdField, t.bwdX, t.bwdY = true, srcField, mvx, mvy
}

// tracePredictions emits one debug line per formed sub-prediction.
func (p *Picture) tracePredictions(tr *[2]predTrace) {
	if p.Log == nil {
		return
	}
	for i := range tr {
		t := &tr[i]
		if !t.fwd && !t.bwd {
			continue
		}
		args := []interface{}{"field", t.dstField, "mode", t.mode}
		if t.fwd {
			args = append(args, "fwd.field", t.fwdField, "fwd.mvx", t.fwdX, "fwd.mvy", t.fwdY)
		}
		if t.bwd {
			args = append(args, "bwd.field", t.bwdField, "bwd.mvx", t.bwdX, "bwd.mvy", t.bwdY)
		}
		p.Log.Debug("formed prediction", args...)
	}
}
