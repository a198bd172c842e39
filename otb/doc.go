// Package otb implements the escape-encoded node tree container used by
// items.otb, as implemented in OpenTibia Server's fileloader.cpp.
//
// No meaning is assigned to nodes or their payloads; that is the task of
// readers and writers for an individual format, such as package
// otb/items.
package otb
