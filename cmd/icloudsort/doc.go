// Command icloudsort reconciles an iCloud Photos export into an organized,
// metadata-tagged library.
package main
