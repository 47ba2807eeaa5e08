//
// Copyright © 2024 Aaron M. Wenger
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://www.mozilla.org/MPL/2.0/.
//

package esam

import (
	"github.com/biogo/hts/sam"
)

// SetAux replaces any existing field of the same tag in the record with aux.
func SetAux(r *sam.Record, aux sam.Aux) {
	for i, a := range r.AuxFields {
		if a.Tag() == aux.Tag() {
			r.AuxFields[i] = aux
			return
		}
	}
	r.AuxFields = append(r.AuxFields, aux)
}
