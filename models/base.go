package models

const moduleName = "models"
