/*
DESCRIPTION
  motion.go provides the decoded motion parameters carried by a
  macroblock and the dual prime derived vector arithmetic.

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

// MotionData carries the motion parameters decoded for one macroblock.
//
// PMV[r][s][t] is the r'th motion vector (second vectors are used by
// 16x8 and dual prime modes), s selects forward (0) or backward (1), and
// t selects the horizontal (0) or vertical (1) component. Components are
// in half-sample units. FieldSelect[r][s] chooses the source field of
// the reference, and DMVector is the differential used by dual prime.
type MotionData struct {
	PMV         [2][2][2]int
	FieldSelect [2][2]int
	DMVector    [2]int
}

// DualPrimeArithmetic derives the motion vectors for the opposite parity
// predictions of dual prime mode from the transmitted same parity vector
// (mvx, mvy) and the differential, following section 7.6.3.6 of the
// specifications. For frame pictures both rows of dmv are filled, one
// per destination field parity; for field pictures only dmv[0] is used.
func (p *Picture) DualPrimeArithmetic(dmv *[2][2]int, dmvector [2]int, mvx, mvy int) {
	if p.Structure == FramePicture {
		if p.TopFieldFirst {
			// Top field from bottom field.
			dmv[0][0] = scaleHalf(1, mvx) + dmvector[0]
			dmv[0][1] = scaleHalf(1, mvy) + dmvector[1] - 1

			// Bottom field from top field.
			dmv[1][0] = scaleHalf(3, mvx) + dmvector[0]
			dmv[1][1] = scaleHalf(3, mvy) + dmvector[1] + 1
		} else {
			// Top field from bottom field.
			dmv[0][0] = scaleHalf(3, mvx) + dmvector[0]
			dmv[0][1] = scaleHalf(3, mvy) + dmvector[1] - 1

			// Bottom field from top field.
			dmv[1][0] = scaleHalf(1, mvx) + dmvector[0]
			dmv[1][1] = scaleHalf(1, mvy) + dmvector[1] + 1
		}
		return
	}

	// Field picture; prediction from the field of opposite parity.
	dmv[0][0] = scaleHalf(1, mvx) + dmvector[0]
	dmv[0][1] = scaleHalf(1, mvy) + dmvector[1]

	// Correction for the vertical shift between fields.
	if p.Structure == TopField {
		dmv[0][1]--
	} else {
		dmv[0][1]++
	}
}

// scaleHalf returns (m*v + (v>0 ? 1 : 0)) >> 1, the half-sample rounded
// scaling of section 7.6.3.6. The rounding term depends on the sign of v,
// not of the product.
func scaleHalf(m, v int) int {
	s := m * v
	if v > 0 {
		s++
	}
	return s >> 1
}
