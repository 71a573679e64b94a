// SPDX-License-Identifier: MPL-2.0

// Package issue turns failures into guidance for the person at the terminal.
//
// ActionableError carries the operation, resource and suggestions for errors
// raised while loading configuration or starting the console. Issue holds a
// Markdown explanation per failure class, rendered with glamour; ForCode maps
// a failed dispatch result to its explanation.
package issue
