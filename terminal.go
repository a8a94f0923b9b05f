/**
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *   http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"os"

	log "github.com/sirupsen/logrus"
	"golang.org/x/term"
)

// checkTerminal warns when stdout is a terminal too small for the grid.
// Redirected output is never checked.
func checkTerminal(f *os.File, cfg Config) {
	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return
	}
	width, height, err := term.GetSize(fd)
	if err != nil {
		log.WithError(err).Debug("terminal size unavailable")
		return
	}
	// Moon glyphs render two columns wide in most terminals.
	if width < 2*cfg.Columns() || height < cfg.Rows() {
		log.WithFields(log.Fields{
			"terminal": [2]int{width, height},
			"grid":     [2]int{cfg.Columns(), cfg.Rows()},
		}).Warn("terminal smaller than glyph grid, output will wrap")
	}
}
