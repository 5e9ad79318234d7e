package ir

// RuntimeVersion is the bookshelf runtime version, reported by the CLI.
const RuntimeVersion = "0.1.0"
