package ir

// FactoryVersion is the factory implementation version.
const FactoryVersion = "0.1.0"
