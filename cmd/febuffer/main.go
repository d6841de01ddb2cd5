/*
Copyright © 2026 the FeBuffer authors.
This file is part of FeBuffer.

FeBuffer is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

FeBuffer is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with FeBuffer.  If not, see <http://www.gnu.org/licenses/>.
*/

// Command febuffer is a command-line interface for the FeBuffer iron
// buffering model.
package main

import (
	"fmt"
	"os"

	"github.com/spatialmodel/febuffer/febufferutil"
)

func main() {
	if err := febufferutil.Root.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(-1)
	}
}
