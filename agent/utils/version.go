package utils

// Version is the current version of the agent.
const Version = "0.1.0"
